// Package main is the entry point for the Archivio backend CLI.
package main

func main() {
	Execute()
}
