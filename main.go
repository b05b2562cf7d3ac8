package main

import (
	"github.com/dhazelett/iDRAC-Fan-Controller/cmd"
)

func main() {
	cmd.Execute()
}
