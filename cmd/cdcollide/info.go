package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/akmonengine/collide/cdmap"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Info prints section statistics and, with --entities, every entity.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("info: expected one map file")
	}

	m, err := cdmap.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	fmt.Print(m.Stats())

	if ctx.Bool("entities") {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"#", "Classname", "Key/values"})

		for i := range m.Entities {
			view := m.Entity(i)
			classname, _ := view.Get("classname")

			var kvs []string
			for key, value := range view.Pairs() {
				if key != "classname" {
					kvs = append(kvs, fmt.Sprintf("%s=%q", key, value))
				}
			}
			table.Append([]string{fmt.Sprintf("%d", i), classname, strings.Join(kvs, " ")})
		}
		table.Render()
	}

	return nil
}
