package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/go-git/go-billy/v6/memfs"
	"golang.org/x/term"

	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/db"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

var commands = []string{
	".help", ".quit", ".tables", ".schema", ".databases", ".use", ".log",
	".restore", ".export", ".import-table", ".import", ".history", ".clear", ".version",
	"SELECT", "INSERT INTO", "UPDATE", "DELETE FROM", "CREATE TABLE", "CREATE DATABASE",
}

// CLI holds the CLI state
type CLI struct {
	conn     *JsonDB.Connection
	user     string
	password string
	options  []JsonDB.Option
	s3Config *db.S3Config
	out      io.Writer
	history  []string
}

func main() {
	dir := flag.String("dir", "", "Database directory (in-memory when empty)")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	user := flag.String("user", "jsondb", "User name to connect as")
	userName := flag.String("name", "JsonDB", "Author name for table history")
	userEmail := flag.String("email", "cli@jsondb.local", "Author email for table history")
	history := flag.Bool("history", false, "Record every table write in the table history")
	s3Region := flag.String("s3Region", "", "Region for s3:// import and export")
	s3Endpoint := flag.String("s3Endpoint", "", "Endpoint for S3-compatible storage")
	passwords := flag.String("passwords", "", "File of user:bcrypt-hash lines to authenticate against")
	flag.Parse()

	printBanner(os.Stdout)

	var options []JsonDB.Option
	path := *dir
	if path == "" {
		fmt.Printf("%sUsing in-memory database%s\n", SuccessColor, ResetColor)
		options = append(options, JsonDB.WithFilesystem(memfs.New()))
		path = "default"
	} else {
		fmt.Printf("%sUsing database directory: %s%s\n", SuccessColor, path, ResetColor)
	}
	if *history {
		options = append(options, JsonDB.WithHistory(core.Identity{Name: *userName, Email: *userEmail}))
	}

	var password string
	if *passwords != "" {
		auth, err := JsonDB.LoadPasswordFile(*passwords)
		if err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		options = append(options, JsonDB.WithAuthenticator(auth))
		password = os.Getenv("JSONDB_PASSWORD")
		if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Password: ")
			secret, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
				os.Exit(1)
			}
			password = string(secret)
		}
	}

	conn, err := JsonDB.Connect(path, *user, password, options...)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	cli := &CLI{
		conn:     conn,
		user:     *user,
		password: password,
		options:  options,
		out:      os.Stdout,
		history:  make([]string, 0),
	}
	defer func() { cli.conn.Close() }()

	if *s3Region != "" || *s3Endpoint != "" {
		cli.s3Config = &db.S3Config{Region: *s3Region, Endpoint: *s3Endpoint}
	}

	// Execute SQL file if provided
	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		err := cli.runInteractive()
		if err == nil {
			return
		}
		fmt.Printf("%sLine editing unavailable: %v%s\n", ErrorColor, err, ResetColor)
	}
	cli.run(os.Stdin)
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w)
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("JsonDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Fprintf(w, "%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Fprintf(w, "%s%s║     JSON file-backed SQL database     ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintf(w, "%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Type .help for commands, .quit to exit")
	fmt.Fprintln(w)
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jsondb_history")
}

func newCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, command := range commands {
		items = append(items, readline.PcItem(command))
	}
	return readline.NewPrefixCompleter(items...)
}

// runInteractive reads statements with line editing, completion and a
// persistent history file.
func (cli *CLI) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cli.getPrompt(false),
		HistoryFile:       getHistoryPath(),
		AutoComplete:      newCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         ".quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var buffer strings.Builder
	for {
		rl.SetPrompt(cli.getPrompt(buffer.Len() > 0))

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			continue
		}
		if err != nil {
			fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
			return nil
		}

		if !cli.handleLine(&buffer, line) {
			return nil
		}
	}
}

// run reads statements from r until EOF or .quit.
func (cli *CLI) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	var buffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(buffer.Len() > 0))
		if !scanner.Scan() {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}
		if !cli.handleLine(&buffer, scanner.Text()) {
			return
		}
	}
}

// handleLine accumulates input until a statement ends with ';' and runs it.
// Dot commands are only recognised at the start of a statement. It returns
// false when the CLI should exit.
func (cli *CLI) handleLine(buffer *strings.Builder, input string) bool {
	input = strings.TrimSuffix(input, "\r")
	if strings.TrimSpace(input) == "" {
		return true
	}

	if buffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ".") {
		return cli.handleCommand(input)
	}

	buffer.WriteString(input)
	trimmed := strings.TrimSpace(buffer.String())
	if !strings.HasSuffix(trimmed, ";") {
		buffer.WriteString(" ")
		return true
	}
	buffer.Reset()

	query := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	if query == "" {
		return true
	}
	cli.addToHistory(query + ";")
	cli.execute(query)
	return true
}

func (cli *CLI) execute(query string) {
	if cli.conn.IsClosed() {
		cli.printError(core.ErrConnectionClosed)
		return
	}
	result, err := cli.conn.Engine().Execute(query)
	if err != nil {
		cli.printError(err)
		return
	}
	result.Render(cli.out)
}

func (cli *CLI) printError(err error) {
	fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
}

func (cli *CLI) printUsage(usage string) {
	fmt.Fprintf(cli.out, "%s✗ Usage: %s%s\n", ErrorColor, usage, ResetColor)
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%sjsondb (%s)>%s ", PromptColor, cli.conn.MetaData().DatabaseName(), ResetColor)
}

// handleCommand runs a dot command. It returns false for .quit.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		return false

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".schema":
		if len(parts) < 2 {
			cli.printUsage(".schema <table>")
			break
		}
		cli.showSchema(parts[1])

	case ".databases", ".dbs":
		cli.showDatabases()

	case ".use":
		if len(parts) < 2 {
			cli.printUsage(".use <database>")
			break
		}
		if err := cli.useDatabase(parts[1]); err != nil {
			cli.printError(err)
			break
		}
		fmt.Fprintf(cli.out, "%s✓ Using database: %s%s\n", SuccessColor, parts[1], ResetColor)

	case ".log":
		if len(parts) < 2 {
			cli.printUsage(".log <table>")
			break
		}
		cli.showLog(parts[1])

	case ".restore":
		if len(parts) < 3 {
			cli.printUsage(".restore <table> <transaction>")
			break
		}
		if err := cli.conn.RestoreTable(parts[1], parts[2]); err != nil {
			cli.printError(err)
			break
		}
		fmt.Fprintf(cli.out, "%s✓ Restored %s to %s%s\n", SuccessColor, parts[1], parts[2], ResetColor)

	case ".export":
		if len(parts) < 3 {
			cli.printUsage(".export <table> <file|s3://bucket/key>")
			break
		}
		n, err := cli.conn.Engine().ExportTable(context.Background(), parts[1], parts[2], cli.s3Config)
		if err != nil {
			cli.printError(err)
			break
		}
		fmt.Fprintf(cli.out, "%s✓ Exported %d bytes to %s%s\n", SuccessColor, n, parts[2], ResetColor)

	case ".import-table":
		if len(parts) < 3 {
			cli.printUsage(".import-table <table> <file|http(s)://...|s3://bucket/key>")
			break
		}
		n, err := cli.conn.Engine().ImportTable(context.Background(), parts[1], parts[2], cli.s3Config)
		if err != nil {
			cli.printError(err)
			break
		}
		fmt.Fprintf(cli.out, "%s✓ Imported %d rows into %s%s\n", SuccessColor, n, parts[1], ResetColor)

	case ".import":
		if len(parts) < 2 {
			cli.printUsage(".import <file.sql>")
			break
		}
		if err := cli.importFile(parts[1]); err != nil {
			cli.printError(err)
		}

	case ".history":
		cli.printHistory()

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".version":
		fmt.Fprintf(cli.out, "JsonDB version %s\n", Version)

	default:
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	w := cli.out
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, "  .help, .h                   Show this help message")
	fmt.Fprintln(w, "  .quit, .exit                Exit the CLI")
	fmt.Fprintln(w, "  .tables                     List tables in the current database")
	fmt.Fprintln(w, "  .schema <table>             Show the columns of a table")
	fmt.Fprintln(w, "  .databases                  List databases next to the current one")
	fmt.Fprintln(w, "  .use <db>                   Switch to another database")
	fmt.Fprintln(w, "  .log <table>                Show the table history (-history)")
	fmt.Fprintln(w, "  .restore <table> <txn>      Restore a table to a transaction")
	fmt.Fprintln(w, "  .export <table> <dest>      Write a table to a file or s3:// URL")
	fmt.Fprintln(w, "  .import-table <table> <src> Replace a table from a file, URL or s3:// URL")
	fmt.Fprintln(w, "  .import <file>              Execute SQL statements from a file")
	fmt.Fprintln(w, "  .history                    Show command history")
	fmt.Fprintln(w, "  .clear                      Clear the screen")
	fmt.Fprintln(w, "  .version                    Show version info")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, "  CREATE DATABASE <name>;")
	fmt.Fprintln(w, "  CREATE TABLE <table> (<column>, ...);")
	fmt.Fprintln(w, "  INSERT INTO <table> [(<cols>)] VALUES (<vals>)[, (<vals>)];")
	fmt.Fprintln(w, "  SELECT * | <cols> FROM <table> WHERE <col> <op> <val>;")
	fmt.Fprintln(w, "  UPDATE <table> SET <col>=<val>[, ...] [WHERE <col> <op> <val>];")
	fmt.Fprintln(w, "  DELETE FROM <table> WHERE <col> <op> <val>;")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sOperators:%s =, !=, <>, <, >, <=, >=\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
}

func (cli *CLI) showTables() {
	tables, err := cli.conn.MetaData().Tables()
	if err != nil {
		cli.printError(err)
		return
	}
	cli.printList("Table", tables)
}

func (cli *CLI) showDatabases() {
	databases, err := cli.conn.MetaData().Databases()
	if err != nil {
		cli.printError(err)
		return
	}
	cli.printList("Database", databases)
}

func (cli *CLI) showSchema(table string) {
	columns, err := cli.conn.MetaData().Columns(table)
	if err != nil {
		cli.printError(err)
		return
	}
	cli.printList("Column", columns)
}

func (cli *CLI) printList(header string, items []string) {
	if len(items) > 0 {
		grid := db.NewGrid(cli.out, header)
		for _, item := range items {
			grid.Append(item)
		}
		grid.Render()
	}
	fmt.Fprintf(cli.out, "%d rows\n", len(items))
}

func (cli *CLI) showLog(table string) {
	transactions, err := cli.conn.History(table)
	if err != nil {
		cli.printError(err)
		return
	}

	if len(transactions) > 0 {
		grid := db.NewGrid(cli.out, "Transaction", "When", "Author", "Message")
		for _, transaction := range transactions {
			grid.Append(
				transaction.Id,
				transaction.When.Format("2006-01-02 15:04:05"),
				transaction.Author,
				strings.TrimSpace(transaction.Message),
			)
		}
		grid.Render()
	}
	fmt.Fprintf(cli.out, "%d transactions\n", len(transactions))
}

// useDatabase reconnects to a sibling database.
func (cli *CLI) useDatabase(name string) error {
	path := filepath.Join(filepath.Dir(cli.conn.Path()), name)
	conn, err := JsonDB.Connect(path, cli.user, cli.password, cli.options...)
	if err != nil {
		return err
	}
	cli.conn.Close()
	cli.conn = conn
	return nil
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	// Limit history size
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, stmt := range splitStatements(string(data)) {
		result, err := cli.conn.Engine().Execute(stmt)
		if err != nil {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %v\n", err)
			errorCount++
			continue
		}
		successCount++

		switch r := result.(type) {
		case db.CommitResult:
			var details []string
			if r.DatabasesCreated > 0 {
				details = append(details, fmt.Sprintf("%d db created", r.DatabasesCreated))
			}
			if r.TablesCreated > 0 {
				details = append(details, fmt.Sprintf("%d table created", r.TablesCreated))
			}
			if r.RecordsWritten > 0 {
				details = append(details, fmt.Sprintf("%d written", r.RecordsWritten))
			}
			if r.RecordsUpdated > 0 {
				details = append(details, fmt.Sprintf("%d updated", r.RecordsUpdated))
			}
			if r.RecordsDeleted > 0 {
				details = append(details, fmt.Sprintf("%d deleted", r.RecordsDeleted))
			}
			detailStr := ""
			if len(details) > 0 {
				detailStr = " (" + strings.Join(details, ", ") + ")"
			}
			fmt.Fprintf(cli.out, "%s[%d] ✓ %s%s%s\n", SuccessColor, i+1, truncate(stmt, 50), detailStr, ResetColor)
		case db.QueryResult:
			fmt.Fprintf(cli.out, "%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.RecordsRead, ResetColor)
		}
	}

	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements, skipping
// "--" comments outside string literals
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		// A doubled quote inside a string toggles twice and stays inside.
		if ch == '\'' || ch == '"' {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// Handle last statement without semicolon
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
