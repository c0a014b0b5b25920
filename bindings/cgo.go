package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/JsonDB"
)

//export jsondb_open_memory
func jsondb_open_memory(database *C.char) C.int {
	conn, err := JsonDB.Connect(C.GoString(database), "", "", JsonDB.WithFilesystem(memfs.New()))
	if err != nil {
		return -1
	}
	return C.int(handles.add(conn))
}

//export jsondb_open
func jsondb_open(path *C.char, user *C.char, password *C.char) C.int {
	conn, err := JsonDB.Connect(C.GoString(path), C.GoString(user), C.GoString(password))
	if err != nil {
		return -1
	}
	return C.int(handles.add(conn))
}

//export jsondb_close
func jsondb_close(handle C.int) {
	handles.close(int(handle))
}

//export jsondb_execute
func jsondb_execute(handle C.int, query *C.char) *C.char {
	return C.CString(string(execute(int(handle), C.GoString(query))))
}

//export jsondb_free
func jsondb_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
