package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	va "github.com/lanikai/alohava"
	_ "github.com/lanikai/alohava/drivers/soft"
	"github.com/lanikai/alohava/internal/decoder"
	"github.com/lanikai/alohava/internal/feed"
	flag "github.com/spf13/pflag"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Printf("alohava %s (VA-API %d.%d)\n", GitRevisionId, va.VersionMajor, va.VersionMinor)
	fmt.Println("Drivers:", strings.Join(va.Drivers(), ", "))
}

func fatal(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "alohava: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}
	if !flagInfo && flagInput == "" {
		help()
		os.Exit(2)
	}

	display, err := va.GetDisplay(flagDriver, va.Config{})
	if err != nil {
		fatal("%v", err)
	}
	if _, _, err := display.Initialize(); err != nil {
		fatal("%v", err)
	}
	defer display.Terminate()

	if flagInfo {
		if err := printInfo(os.Stdout, display); err != nil {
			display.Terminate()
			fatal("%v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := decode(ctx, display); err != nil {
		display.Terminate()
		fatal("%v", err)
	}
}

func decode(ctx context.Context, display *va.Display) error {
	src, err := feed.Open(flagInput)
	if err != nil {
		return err
	}
	defer src.Close()

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	dec, err := decoder.New(display, src, decoder.Options{
		Surfaces:      flagSurfaces,
		MaxSliceBytes: flagMaxSliceBytes,
		Frames:        flagFrames,
		OnPicture: func(p decoder.Picture) {
			key := ' '
			if p.KeyFrame {
				key = 'K'
			}
			fmt.Printf("%6d %c %v %3d slices %8d bytes  ", p.Number, key, p.Surface, p.Slices, p.Bytes)
			if p.Err != nil {
				bad.Println(p.Err)
			} else {
				ok.Println(p.Status)
			}
		},
	})
	if err != nil {
		return err
	}
	defer dec.Close()

	stats, err := dec.Run(ctx)
	fmt.Printf("%d pictures, %d failed, %d skipped, %d slices, %d bytes\n",
		stats.Pictures, stats.Failed, stats.Skipped, stats.Slices, stats.Bytes)
	return err
}
