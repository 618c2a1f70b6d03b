// Command cli works with note reference codes from the terminal: generate
// fresh codes for printing runs and validate scanned ones.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/cashnoteio/cashnote/pkg/refcode"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "generate":
		count := 1
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n < 1 {
				color.Red("invalid count: %s", os.Args[2])
				os.Exit(1)
			}
			count = n
		}
		for i := 0; i < count; i++ {
			fmt.Println(refcode.Generate())
		}
	case "validate":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		code := os.Args[2]
		if refcode.Validate(code) {
			color.Green("%s is valid", code)
			return
		}
		color.Red("%s is invalid", code)
		os.Exit(1)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: cli <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  generate [count]   generate reference codes")
	fmt.Println("  validate <code>    check a reference code's format and checksum")
}
