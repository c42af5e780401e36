package main

import "github.com/seanshin0214/kakaotalk-mcp/cmd"

func main() {
	cmd.Execute()
}
