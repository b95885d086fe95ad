// Package main provides the entry point for the web2pdf CLI.
package main

func main() {
	Execute()
}
