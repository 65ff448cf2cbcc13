package main

import (
	"fmt"
	"os"

	"github.com/ghiro/autoupload/cmd/autoupload/commands"
)

func main() {
	err := commands.Execute()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
