// Package main provides the entry point for the html-grader CLI.
package main

func main() {
	Execute()
}
