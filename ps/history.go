package ps

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/nickyhof/JsonDB/core"
)

// HistoryDir is the directory inside a database that holds its history.
const HistoryDir = ".history"

var (
	ErrHistoryDisabled     = errors.New("table history is not enabled")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// History keeps every table write as a commit in a git object store. The
// tree of each commit holds one blob per table file.
//
// Every handle on the same history directory shares mu, since HEAD is read
// and moved by each write.
type History struct {
	repo     *git.Repository
	identity core.Identity
	mu       *sync.Mutex
}

func openHistory(fs billy.Filesystem, mu *sync.Mutex) (*History, error) {
	historyFS, err := fs.Chroot(HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIO, err)
	}

	storer := filesystem.NewStorageWithOptions(historyFS, cache.NewObjectLRUDefault(), filesystem.Options{})

	mu.Lock()
	defer mu.Unlock()

	repo, err := git.Open(storer, nil)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.Init(storer)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open history: %w", core.ErrIO, err)
	}

	return &History{repo: repo, mu: mu}, nil
}

// Record commits data as the new content of path. The commit objects are
// stored first, then apply runs, and HEAD only moves when apply succeeds.
// A failed apply leaves the history as it was.
func (history *History) Record(path string, data []byte, message string, apply func() error) (Transaction, error) {
	history.mu.Lock()
	defer history.mu.Unlock()

	commit, err := history.prepareCommit(path, data, message)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: record history: %w", core.ErrIO, err)
	}

	if apply != nil {
		if err := apply(); err != nil {
			return Transaction{}, err
		}
	}

	if err := history.advance(commit.Hash); err != nil {
		return Transaction{}, fmt.Errorf("%w: record history: %w", core.ErrIO, err)
	}
	return transactionOf(commit), nil
}

func (history *History) prepareCommit(path string, data []byte, message string) (*object.Commit, error) {
	blobHash, err := history.createBlob(data)
	if err != nil {
		return nil, err
	}

	treeHash, err := history.getCurrentTree()
	if err != nil {
		return nil, err
	}

	entries, err := history.getTreeEntries(treeHash)
	if err != nil {
		return nil, err
	}
	entries[path] = object.TreeEntry{Name: path, Mode: filemode.Regular, Hash: blobHash}

	list := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}

	newTree, err := history.buildTreeFromEntries(list)
	if err != nil {
		return nil, err
	}

	return history.createCommitDirect(newTree, message)
}

// Log lists the commits that changed path, newest first.
func (history *History) Log(path string) ([]Transaction, error) {
	history.mu.Lock()
	defer history.mu.Unlock()

	headRef, err := history.repo.Head()
	if err != nil {
		// No commits yet
		return nil, nil
	}

	var transactions []Transaction
	commit, err := history.repo.CommitObject(headRef.Hash())
	for err == nil && commit != nil {
		current := history.entryHash(commit, path)

		var parent *object.Commit
		previous := plumbing.ZeroHash
		if commit.NumParents() > 0 {
			parent, err = commit.Parent(0)
			if err != nil {
				return nil, fmt.Errorf("failed to get parent commit: %w", err)
			}
			previous = history.entryHash(parent, path)
		}

		if current != previous {
			transactions = append(transactions, transactionOf(commit))
		}
		commit = parent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get head commit: %w", err)
	}

	return transactions, nil
}

// ReadAt returns the content of path as of the given transaction.
func (history *History) ReadAt(path string, id string) ([]byte, error) {
	history.mu.Lock()
	defer history.mu.Unlock()

	commit, err := history.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, ErrTransactionNotFound)
	}

	hash := history.entryHash(commit, path)
	if hash == plumbing.ZeroHash {
		return nil, fmt.Errorf("%s at %s: %w", path, id, core.ErrTableNotFound)
	}

	blob, err := history.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// Latest returns the head transaction, or the zero Transaction.
func (history *History) Latest() Transaction {
	history.mu.Lock()
	defer history.mu.Unlock()

	headRef, err := history.repo.Head()
	if err != nil || headRef == nil {
		return Transaction{}
	}

	commit, err := history.repo.CommitObject(headRef.Hash())
	if err != nil {
		return Transaction{}
	}
	return transactionOf(commit)
}

func transactionOf(commit *object.Commit) Transaction {
	author := ""
	if commit.Author.Name != "" || commit.Author.Email != "" {
		author = fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email)
	}

	return Transaction{
		Id:      commit.Hash.String(),
		When:    commit.Committer.When,
		Author:  author,
		Message: commit.Message,
	}
}

func (history *History) entryHash(commit *object.Commit, path string) plumbing.Hash {
	entries, err := history.getTreeEntries(commit.TreeHash)
	if err != nil {
		return plumbing.ZeroHash
	}
	if entry, ok := entries[path]; ok {
		return entry.Hash
	}
	return plumbing.ZeroHash
}

// createBlob creates a blob object directly in the object store
func (history *History) createBlob(data []byte) (plumbing.Hash, error) {
	obj := history.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}

	return hash, nil
}

// getCurrentTree returns the tree hash of HEAD, or ZeroHash before the
// first commit.
func (history *History) getCurrentTree() (plumbing.Hash, error) {
	headRef, err := history.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, nil
	}

	commit, err := history.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get head commit: %w", err)
	}

	return commit.TreeHash, nil
}

func (history *History) getTreeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)

	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(history.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}

	return entries, nil
}

func (history *History) buildTreeFromEntries(entries []object.TreeEntry) (plumbing.Hash, error) {
	// Git requires sorted entries
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	tree := &object.Tree{Entries: entries}

	obj := history.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}

	return hash, nil
}

func (history *History) createCommitDirect(treeHash plumbing.Hash, message string) (*object.Commit, error) {
	var parentHashes []plumbing.Hash
	headRef, err := history.repo.Head()
	if err == nil {
		parentHashes = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  history.identity.Name,
		Email: history.identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parentHashes,
	}

	obj := history.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return nil, fmt.Errorf("failed to encode commit: %w", err)
	}

	commitHash, err := history.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to store commit: %w", err)
	}

	commit.Hash = commitHash
	return commit, nil
}

// advance points the HEAD branch at commit.
func (history *History) advance(commit plumbing.Hash) error {
	ref := plumbing.NewHashReference(history.headBranch(), commit)
	if err := history.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to update HEAD: %w", err)
	}
	return nil
}

// headBranch is the branch HEAD points at.
func (history *History) headBranch() plumbing.ReferenceName {
	ref, err := history.repo.Storer.Reference(plumbing.HEAD)
	if err == nil && ref.Type() == plumbing.SymbolicReference {
		return ref.Target()
	}
	return plumbing.Master
}
