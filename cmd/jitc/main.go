// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"jitcore/internal/bytecode"
	"jitcore/internal/driver"
	"jitcore/internal/profile"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: jitc <file.jitasm>")
		os.Exit(1)
	}

	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	unit, err := bytecode.Parse(path, string(source))
	if err != nil {
		if _, ok := err.(participle.Error); !ok {
			color.Red("failed to assemble %s: %s", path, err)
		}
		os.Exit(1)
	}

	artifact, cerr := driver.Compile(unit, driver.Options{
		Trace:   driver.ColorTrace(func(msg string) { fmt.Println(msg) }),
		Profile: profile.Empty(),
	})
	if cerr != nil {
		color.Red("compile failed: %s", cerr)
		os.Exit(1)
	}

	color.Green("compiled session %s", artifact.SessionID)
	fmt.Printf("entry point: %d\n", artifact.EntryPoint)
	fmt.Printf("guards inserted: %d\n", len(artifact.Guards))
	fmt.Printf("registers spilled: %d\n", artifact.Registers.SpillCount())
}
