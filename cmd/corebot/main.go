// Command corebot runs the dialog bot as an HTTP service, an MCP server or a local chat.
package main

func main() {
	Execute()
}
