package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	va "github.com/lanikai/alohava"
)

// printInfo lists every profile and entrypoint of the display with the
// attributes a default config resolves to, followed by the image formats.
func printInfo(w io.Writer, d *va.Display) error {
	heading := color.New(color.Bold, color.FgCyan)
	heading.Fprintf(w, "Driver %s, VA-API %d.%d\n", d.DriverName(), va.VersionMajor, va.VersionMinor)

	profiles := make([]va.Profile, d.MaxNumProfiles())
	n, err := d.QueryConfigProfiles(profiles)
	if err != nil {
		return err
	}
	entrypoints := make([]va.Entrypoint, d.MaxNumEntrypoints())
	attribs := make([]va.ConfigAttrib, d.MaxNumConfigAttributes())
	for _, p := range profiles[:n] {
		m, err := d.QueryConfigEntrypoints(p, entrypoints)
		if err != nil {
			return err
		}
		for _, e := range entrypoints[:m] {
			cfg, err := d.CreateConfig(p, e, nil)
			if err != nil {
				return err
			}
			_, _, k, err := d.QueryConfigAttributes(cfg, attribs)
			d.DestroyConfig(cfg)
			if err != nil {
				return err
			}
			var parts []string
			for _, a := range attribs[:k] {
				parts = append(parts, fmt.Sprintf("%v=%#x", a.Type, a.Value))
			}
			fmt.Fprintf(w, "  %-22v %-11v %s\n", p, e, strings.Join(parts, " "))
		}
	}

	formats := make([]va.ImageFormat, d.MaxNumImageFormats())
	if n, err = d.QueryImageFormats(formats); err != nil {
		return err
	}
	heading.Fprintln(w, "Image formats")
	for _, f := range formats[:n] {
		fmt.Fprintf(w, "  %v %2d bpp\n", f.FourCC, f.BitsPerPixel)
	}

	sub := make([]va.ImageFormat, d.MaxNumSubpictureFormats())
	flags := make([]uint32, len(sub))
	if n, err = d.QuerySubpictureFormats(sub, flags); err != nil {
		return err
	}
	heading.Fprintln(w, "Subpicture formats")
	for i, f := range sub[:n] {
		fmt.Fprintf(w, "  %v flags %#x\n", f.FourCC, flags[i])
	}
	return nil
}
