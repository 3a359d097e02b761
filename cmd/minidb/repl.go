package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"minidb/pkg/session"
)

const historyFile = ".minidb_history"

// runRepl reads one statement per line and prints its result. Lines
// starting with a backslash are shell commands: \wal dumps the session's
// log, \q quits.
func runRepl(ses *session.Session) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("minidb shell — end with \\q or Ctrl-D")
	for {
		input, err := line.Prompt("minidb> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "\\") {
			if done := shellCommand(ses, input); done {
				return nil
			}
			continue
		}

		fmt.Print(formatResult(ses.Execute(input)))
	}
}

// shellCommand handles backslash commands, reporting whether the shell
// should exit.
func shellCommand(ses *session.Session, input string) bool {
	switch input {
	case "\\q", "\\quit":
		return true
	case "\\wal":
		for i, r := range ses.WAL().Records() {
			switch {
			case r.Table != "":
				fmt.Printf("%4d  %s txn=%d table=%s values=%d\n", i, r.Type, r.TxnID, r.Table, len(r.Values))
			default:
				fmt.Printf("%4d  %s txn=%d\n", i, r.Type, r.TxnID)
			}
		}
		fmt.Printf("%d records\n", ses.WAL().Len())
	default:
		fmt.Printf("unknown command %s\n", input)
	}
	return false
}
