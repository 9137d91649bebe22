package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagDriver        string
	flagInfo          bool
	flagInput         string
	flagSurfaces      int
	flagMaxSliceBytes int
	flagFrames        int
	flagHelp          bool
	flagVersion       bool
)

func init() {
	flag.StringVarP(&flagDriver, "driver", "d", "", "Accelerator driver")
	flag.BoolVarP(&flagInfo, "info", "", false, "Print driver capabilities and exit")
	flag.StringVarP(&flagInput, "input", "i", "", "Video source")
	flag.IntVarP(&flagSurfaces, "surfaces", "n", 4, "Number of decode surfaces")
	flag.IntVarP(&flagMaxSliceBytes, "max-slice-bytes", "", 0, "Split larger slices into fragments")
	flag.IntVarP(&flagFrames, "frames", "f", 0, "Stop after this many pictures")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Video acceleration runtime

Usage: alohava [OPTION]...

Driver:
  -d, --driver=NAME         Accelerator driver (default: $ALOHAVA_DRIVER, or soft)
      --info                Print profiles, entrypoints, attributes and image
                            formats, then exit

Decoding:
  -i, --input=SOURCE        Video source, mp4:FILE or h264:FILE
  -n, --surfaces=NUM        Number of decode surfaces (default: 4)
      --max-slice-bytes=NUM Send larger slices in fragments (default: whole)
  -f, --frames=NUM          Stop after NUM pictures (default: all)

Miscellaneous:
  -h, --help                Prints this help message and exits
  -v, --version             Prints version information and exits

Logging is controlled by LOGLEVEL, e.g. LOGLEVEL=info,va=debug,soft=5

Please report bugs to: aloha@lanikailabs.com`

var banner = [][]string{
	{"        ", "   __ _ ", "  / _` |", " | (_| |", "  \\__,_|"},
	{" _ ", "| |", "| |", "| |", "|_|"},
	{"       ", "  ___  ", " / _ \\ ", "| (_) |", " \\___/ "},
	{" _     ", "| |__  ", "| '_ \\ ", "| | | |", "|_| |_|"},
	{"       ", "  __ _ ", " / _` |", "| (_| |", " \\__,_|"},
	{"        ", "__   __ ", "\\ \\ / / ", " \\ V /  ", "  \\_/   "},
	{"       ", "  __ _ ", " / _` |", "| (_| |", " \\__,_|"},
}

// Help information is printed and program exits
func help() {
	colors := []*color.Color{
		color.New(color.FgRed),
		color.New(color.FgYellow),
		color.New(color.FgCyan),
		color.New(color.FgYellow),
	}
	for line := 0; line < 5; line++ {
		for i, letter := range banner {
			colors[i%len(colors)].Print(letter[line])
		}
		fmt.Println()
	}
	fmt.Println(helpString)
}
