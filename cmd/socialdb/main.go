/*
Socialdb establishes and maintains the schema of the social network SQLite database.

Usage:

	socialdb [command] [flags]

Commands:

	init      create every missing table, column, trigger and index
	migrate   add the posts.visibility_status column to an existing database
	verify    report schema objects the database lacks
	reset     delete the database file, after confirmation, and initialise it again
	version   print the program version

Configurations are handled by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully

	> 0
		The program ended due to an error
*/
package main

import (
	"fmt"
	"os"
)

// main is the program entry point. The only purpose of this function is to run the root command and set the exit
// code if there is any error
func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}
