// Command solsys prints a scene's body hierarchy and, optionally, every
// body's position at a given time.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/timectrl"
)

func main() {
	scenePath := flag.String("scene", "configs/sol.json", "path to a JSON scene file")
	at := flag.String("at", "", "RFC3339 time to propagate to (default: no positions)")
	flag.Parse()

	if err := run(os.Stdout, *scenePath, *at); err != nil {
		fmt.Fprintln(os.Stderr, "solsys:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, scenePath, at string) error {
	scene, err := core.LoadSceneFile(scenePath)
	if err != nil {
		return err
	}

	withPositions := at != ""
	if withPositions {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("-at: %w", err)
		}
		if _, err := scene.System.UpdatePositions(timectrl.SecondsSince(scene.Epoch, t)); err != nil {
			fmt.Fprintln(os.Stderr, "solsys: warning:", err)
		}
	}

	printHierarchy(w, scene, withPositions)
	return nil
}

func printHierarchy(w io.Writer, scene *core.Scene, withPositions bool) {
	sys := scene.System
	fmt.Fprintf(w, "%s: %d bodies, epoch %s\n", scene.Name, sys.Len(), scene.Epoch.Format(time.RFC3339))

	sys.Walk(func(depth int, b *core.Body) {
		line := strings.Repeat("  ", depth) + b.Name + " (" + b.Type.String() + ")"
		if !b.IsRoot() {
			line += " orbits " + sys.Body(b.Primary).Name
		}
		if n := len(b.Satellites); n > 0 {
			names := make([]string, 0, n)
			for _, s := range b.Satellites {
				names = append(names, sys.Body(s).Name)
			}
			line += fmt.Sprintf(", %d satellite(s): %s", n, strings.Join(names, ", "))
		}
		if b.Orbit != nil {
			line += fmt.Sprintf(" [e=%.4f a=%.4g m P=%.4g s]", b.Orbit.Eccentricity, b.Orbit.SemiMajorAxis, b.Orbit.Period)
		}
		if withPositions {
			if b.PositionValid {
				line += fmt.Sprintf(" at (%.6g, %.6g, %.6g)", b.Position.X, b.Position.Y, b.Position.Z)
			} else {
				line += " at <unsupported orbit>"
			}
		}
		fmt.Fprintln(w, line)
	})
}
