// Command detessellate reconstructs a constrained 2D sketch from the
// boundary edges selected in a scene file, using an in-memory host
// document. It prints the created sketch's geometry and constraints.
//
// Usage:
//
//	detessellate [-dest standalone|new-body|BODY] [-v|-q] scene.toml
//
// Without -dest the destination is prompted for interactively.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/galou/detessellate/pkg/destination"
	"github.com/galou/detessellate/pkg/doc/memdoc"
	"github.com/galou/detessellate/pkg/recon"
	"github.com/galou/detessellate/pkg/sketch"
)

func main() {
	dest := flag.String("dest", "", "destination: standalone, new-body, or a body name")
	verbose := flag.Bool("v", false, "debug logging")
	quiet := flag.Bool("q", false, "suppress warnings")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: detessellate [-dest ...] [-v|-q] scene.toml")
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}
	if *quiet {
		log = log.Level(zerolog.ErrorLevel)
	}

	if err := run(flag.Arg(0), *dest, log); err != nil {
		log.Error().Err(err).Msg("sketch creation failed")
		os.Exit(1)
	}
}

func run(path, dest string, log zerolog.Logger) error {
	sc, err := loadScene(path)
	if err != nil {
		return err
	}
	d, err := buildDocument(sc)
	if err != nil {
		return err
	}

	chooser, err := makeChooser(dest)
	if err != nil {
		return err
	}

	summary, err := recon.CreateSketch(d, chooser, recon.Options{
		Log:       &log,
		Tolerance: sc.Options.Tolerance,
	})
	if err != nil {
		return err
	}
	if summary.Cancelled {
		fmt.Println("cancelled, no sketch created")
		return nil
	}

	printSummary(d, summary)
	return nil
}

// makeChooser maps the -dest flag to a chooser, or falls back to the
// interactive stdin prompt.
func makeChooser(dest string) (destination.Chooser, error) {
	switch dest {
	case "":
		return promptChooser{in: bufio.NewReader(os.Stdin)}, nil
	case "standalone":
		return destination.Fixed(destination.Choice{Kind: destination.Standalone}), nil
	case "new-body":
		return destination.Fixed(destination.Choice{Kind: destination.NewBody}), nil
	default:
		return destination.Fixed(destination.Choice{
			Kind: destination.ExistingBody,
			Body: dest,
		}), nil
	}
}

// promptChooser implements the blocking destination choice on stdin.
type promptChooser struct {
	in *bufio.Reader
}

func (p promptChooser) Choose(bodies []string) (destination.Choice, bool, error) {
	fmt.Println("Choose where to create the sketch:")
	fmt.Println("  1) Standalone sketch")
	fmt.Println("  2) New body")
	for i, b := range bodies {
		fmt.Printf("  %d) Body %s\n", i+3, b)
	}
	fmt.Print("> ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return destination.Choice{}, false, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return destination.Choice{}, false, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(bodies)+2 {
		return destination.Choice{}, false, fmt.Errorf("invalid choice %q", line)
	}

	switch n {
	case 1:
		return destination.Choice{Kind: destination.Standalone}, true, nil
	case 2:
		return destination.Choice{Kind: destination.NewBody}, true, nil
	default:
		return destination.Choice{
			Kind: destination.ExistingBody,
			Body: bodies[n-3],
		}, true, nil
	}
}

// printSummary dumps the created sketch's geometry and constraints.
func printSummary(d *memdoc.Document, s *recon.Summary) {
	fmt.Printf("created %s (%s", s.Sketch, s.Destination)
	if s.Body != "" {
		fmt.Printf(" %s", s.Body)
	}
	fmt.Printf("): %d of %d edges, %d skipped\n",
		s.EdgesAdded, s.EdgesSelected, s.EdgesSkipped)

	sk, ok := d.Sketch(s.Sketch)
	if !ok {
		return
	}

	fmt.Println("geometry:")
	for _, g := range sk.Geometries() {
		tag := ""
		if g.Construction {
			tag = " (construction)"
		}
		fmt.Printf("  [%d] %s%s\n", g.Index, describeGeometry(g.Geometry), tag)
	}

	fmt.Println("constraints:")
	for _, c := range sk.Constraints() {
		fmt.Printf("  [%d] %s\n", c.Index, describeConstraint(c.Constraint, c.Driving))
	}
}

func describeGeometry(g sketch.Geometry) string {
	switch gg := g.(type) {
	case sketch.Segment:
		return fmt.Sprintf("segment (%.3f, %.3f) -> (%.3f, %.3f)",
			gg.Start.X, gg.Start.Y, gg.End.X, gg.End.Y)
	case sketch.Circle:
		return fmt.Sprintf("circle center (%.3f, %.3f) r=%.3f",
			gg.Center.X, gg.Center.Y, gg.Radius)
	case sketch.Arc:
		return fmt.Sprintf("arc center (%.3f, %.3f) r=%.3f, (%.3f, %.3f) -> (%.3f, %.3f)",
			gg.Center.X, gg.Center.Y, gg.Radius,
			gg.Start.X, gg.Start.Y, gg.End.X, gg.End.Y)
	case sketch.Spline:
		return fmt.Sprintf("bspline degree %d, %d poles", gg.Degree, len(gg.Poles))
	default:
		return fmt.Sprintf("%T", g)
	}
}

func describeConstraint(c sketch.Constraint, driving bool) string {
	switch c.Kind {
	case sketch.ConstraintCoincident:
		return fmt.Sprintf("coincident (%d.%d) = (%d.%d)",
			c.Geo, c.Point, c.OtherGeo, c.OtherPoint)
	case sketch.ConstraintRadius:
		return fmt.Sprintf("radius [%d] = %.3f", c.Geo, c.Value)
	case sketch.ConstraintBlock:
		return fmt.Sprintf("block [%d]", c.Geo)
	case sketch.ConstraintDistance:
		mode := "driving"
		if !driving {
			mode = "reference"
		}
		return fmt.Sprintf("distance [%d] = %.3f (%s)", c.Geo, c.Value, mode)
	default:
		return c.Kind.String()
	}
}
