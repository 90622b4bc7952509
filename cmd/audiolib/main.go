// Command audiolib reads and edits audio tags and maintains a metadata
// library.
package main

func main() {
	Execute()
}
