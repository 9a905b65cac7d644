// Package caskdb is a log-structured key-value store following the Bitcask
// design.
//
// Every write is appended to a single log file and an in-memory key
// directory maps each key to the location of its latest record, so a write
// is one append and a read is one seek. The directory is rebuilt by
// replaying the log whenever the store is opened.
//
// Example:
//
//	store, err := caskdb.Open("books.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Set("othello", "shakespeare")
//	author, ok, err := store.Get("othello")
package caskdb
