package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/chazu/lamina/pkg/component"
	"github.com/chazu/lamina/pkg/export"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evalCmd = &cobra.Command{
	Use:   "eval <script>",
	Short: "Evaluate a plate-model script and store the model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		res, err := app.Check(string(src))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w.Message)
		}
		if !res.OK() {
			for _, e := range res.Errors {
				fmt.Fprintf(out, "error: %s\n", e.Error())
			}
			return fmt.Errorf("%s: %d errors", args[0], len(res.Errors))
		}
		logger.Info("script evaluated", zap.String("script", args[0]), zap.Int("plates", len(res.Model.Plates())))
		return saveModel(cmd, "", "eval", res.Model, nil)
	},
}

var importDXFCmd = &cobra.Command{
	Use:   "import-dxf <file>",
	Short: "Build flat plates from the polylines of a DXF drawing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		thickness, _ := cmd.Flags().GetFloat64("thickness")
		prefix, _ := cmd.Flags().GetString("name")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		contours, err := export.ReadDXFContours(f)
		if err != nil {
			return err
		}
		if len(contours) == 0 {
			return fmt.Errorf("%s: no closed polylines", args[0])
		}
		plates := make([]plate.Plate, len(contours))
		for i, c := range contours {
			plates[i] = plate.NewPlate(fmt.Sprintf("%s%d", prefix, i), geom.WorldXY, c, thickness)
		}
		m, err := plate.New(plates, plate.DetectPairs(plates, cfg.Contact),
			plate.WithTolerance(cfg.Contact), plate.WithLogger(logger))
		if err != nil {
			return err
		}
		return saveModel(cmd, "", "import-dxf", m, nil)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sums, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range sums {
			parent := s.Parent
			if parent == "" {
				parent = "-"
			} else if len(parent) > 8 {
				parent = parent[:8]
			}
			fmt.Fprintf(out, "%s  %-12s %3d plates  parent %-8s  %s\n",
				s.ID, s.Operation, s.Plates, parent, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [snapshot]",
	Short: "Print a snapshot's model as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Model)
	},
}

var contactsCmd = &cobra.Command{
	Use:   "contacts [snapshot]",
	Short: "Print the contacts of a model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		res, err := component.ContactProperties(snap.Model, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printWarnings(out, res.Warnings)
		for i, s := range res.Strings {
			fmt.Fprintf(out, "%-10s center %s  vector %s\n", s, fmtVec(res.Centers[i]), fmtVec(res.Vectors[i]))
		}
		for _, b := range res.IDs.Branches() {
			fmt.Fprintf(out, "%s %v\n", b.Path, b.Items)
		}
		return nil
	},
}

var platesCmd = &cobra.Command{
	Use:   "plates [snapshot]",
	Short: "Print the plates of a model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		res, err := component.PlateProperties(snap.Model, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printWarnings(out, res.Warnings)
		for i, p := range snap.Model.Plates() {
			path := []int{i}
			fmt.Fprintf(out, "%d %-12s t=%g normal %s  +%d -%d keys %d  milling %d\n",
				i, p.Label(), res.Thickness[i], fmtVec(res.TopPlanes[i].Normal),
				len(res.Positives.Branch(path)), len(res.Negatives.Branch(path)),
				len(res.Keys.Branch(path)), len(res.TopMilling.Branch(path)))
		}
		return nil
	},
}

var moduleCmd = &cobra.Command{
	Use:   "module <name> [snapshot]",
	Short: "Print the assembly of a module",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 1))
		if err != nil {
			return err
		}
		a, err := snap.Model.Module(args[0])
		if err != nil {
			return err
		}
		res, err := component.ModuleProperties(&a, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sequence %s (%d plates)\n", res.Sequence, res.Count)
		for i, id := range res.Order {
			fmt.Fprintf(out, "%d plate %d vector %s relatives %v\n",
				i, id, fmtVec(res.Vectors[i]), res.Relatives.Branch([]int{i}))
		}
		if len(res.Blocked) > 0 {
			fmt.Fprintf(out, "blocked %v\n", res.Blocked)
		}
		return nil
	},
}

var jointsCmd = &cobra.Command{
	Use:   "joints",
	Short: "Generate joint features on contacts",
}

var fingersCmd = &cobra.Command{
	Use:   "fingers [snapshot]",
	Short: "Add finger joints",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoint(cmd, args, "fingers", func(pm plate.PlateModel, pairs [][2]int) (component.Result, error) {
			f := cmd.Flags()
			return component.Fingers(pm, component.FingerParams{
				Pairs:   pairs,
				Count1:  changed(cmd, "count1", f.GetInt),
				Length1: changed(cmd, "length1", f.GetFloat64),
				Width1:  changed(cmd, "width1", f.GetFloat64),
				Count2:  changed(cmd, "count2", f.GetInt),
				Length2: changed(cmd, "length2", f.GetFloat64),
				Width2:  changed(cmd, "width2", f.GetFloat64),
				Spacing: changed(cmd, "spacing", f.GetFloat64),
				Shift:   changed(cmd, "shift", f.GetFloat64),
				Mirror:  changed(cmd, "mirror", f.GetBool),
			})
		})
	},
}

var halflapCmd = &cobra.Command{
	Use:   "halflap [snapshot]",
	Short: "Cut half-lap slots into crossing plates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoint(cmd, args, "halflap", func(pm plate.PlateModel, pairs [][2]int) (component.Result, error) {
			f := cmd.Flags()
			return component.Halflap(pm, component.HalflapParams{
				Pairs:          pairs,
				Proportion:     changed(cmd, "proportion", f.GetFloat64),
				Tolerance:      changed(cmd, "tolerance", f.GetFloat64),
				MinAngle:       changed(cmd, "min-angle", f.GetFloat64),
				StraightHeight: changed(cmd, "straight-height", f.GetFloat64),
				FilletHeight:   changed(cmd, "fillet-height", f.GetFloat64),
				Segments:       changed(cmd, "segments", f.GetInt),
			})
		})
	},
}

var tenonsCmd = &cobra.Command{
	Use:   "tenons [snapshot]",
	Short: "Add chamfered tenons and mortises",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoint(cmd, args, "tenons", func(pm plate.PlateModel, pairs [][2]int) (component.Result, error) {
			f := cmd.Flags()
			return component.ChamferedTenons(pm, component.TenonParams{
				Pairs:     pairs,
				Count:     changed(cmd, "count", f.GetInt),
				Length:    changed(cmd, "length", f.GetFloat64),
				Width:     changed(cmd, "width", f.GetFloat64),
				Spacing:   changed(cmd, "spacing", f.GetFloat64),
				Shift:     changed(cmd, "shift", f.GetFloat64),
				SideTol:   changed(cmd, "side-tol", f.GetFloat64),
				TopTol:    changed(cmd, "top-tol", f.GetFloat64),
				BottomTol: changed(cmd, "bottom-tol", f.GetFloat64),
			})
		})
	},
}

var sunriseCmd = &cobra.Command{
	Use:   "sunrise [snapshot]",
	Short: "Add fanned dovetail keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoint(cmd, args, "sunrise", func(pm plate.PlateModel, pairs [][2]int) (component.Result, error) {
			f := cmd.Flags()
			p := component.SunriseParams{
				Pairs:       pairs,
				Count:       changed(cmd, "count", f.GetInt),
				Width:       changed(cmd, "width", f.GetFloat64),
				Spacing:     changed(cmd, "spacing", f.GetFloat64),
				SpreadAngle: changed(cmd, "spread-angle", f.GetFloat64),
			}
			if s, _ := f.GetString("direction"); s != "" {
				d, err := geom.ParseDirection(s)
				if err != nil {
					return component.Result{}, err
				}
				p.ForcedDirection = &d
			}
			return component.Sunrise(pm, p)
		})
	},
}

func runJoint(cmd *cobra.Command, args []string, op string, run func(plate.PlateModel, [][2]int) (component.Result, error)) error {
	snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
	if err != nil {
		return err
	}
	sel, _ := cmd.Flags().GetString("pairs")
	pairs, err := parsePairs(sel)
	if err != nil {
		return err
	}
	res, err := run(snap.Model, pairs)
	if err != nil {
		return err
	}
	return saveModel(cmd, snap.ID, op, res.Model, res.Warnings)
}

var booleanCmd = &cobra.Command{
	Use:   "boolean [snapshot]",
	Short: "Merge joint features into plate solids",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		f := cmd.Flags()
		ids, _ := f.GetIntSlice("plates")
		res, err := component.Boolean(snap.Model, ids,
			changed(cmd, "bool-tol", f.GetFloat64),
			changed(cmd, "merge-tol", f.GetFloat64))
		if err != nil {
			return err
		}
		return saveModel(cmd, snap.ID, "boolean", res.Model, res.Warnings)
	},
}

var fabCmd = &cobra.Command{
	Use:   "fab [snapshot]",
	Short: "Compute milling paths and optionally write G-code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		f := cmd.Flags()
		ids, _ := f.GetIntSlice("plates")
		fc := cfg.Fabrication
		res, err := component.Fabrication(snap.Model, component.FabricationParams{
			Plates:        ids,
			ContourRadius: orValue(changed(cmd, "contour-radius", f.GetFloat64), fc.ContourRadius),
			HolesRadius:   orValue(changed(cmd, "holes-radius", f.GetFloat64), fc.HolesRadius),
			Notch:         orValue(changed(cmd, "notch", f.GetBool), fc.Notch),
			Cylinder:      orValue(changed(cmd, "cylinder", f.GetBool), fc.Cylinder),
			TBone:         orValue(changed(cmd, "tbone", f.GetBool), fc.TBone),
			Limit:         orValue(changed(cmd, "limit", f.GetFloat64), fc.Limit),
		})
		if err != nil {
			return err
		}
		if err := saveModel(cmd, snap.ID, "fab", res.Model, res.Warnings); err != nil || res.Model == nil {
			return err
		}

		dir, _ := f.GetString("gcode")
		if dir == "" {
			return nil
		}
		opts := cfg.GCode
		opts.FromBottom, _ = f.GetBool("from-bottom")
		for _, p := range res.Model.Plates() {
			if len(p.TopMilling)+len(p.TopHolesMilling) == 0 {
				continue
			}
			var buf bytes.Buffer
			if err := export.WritePlateGCode(&buf, p, opts); err != nil {
				return err
			}
			written, err := component.Text(component.TextParams{
				Write:     true,
				Folder:    dir,
				Name:      p.Label(),
				Extension: "nc",
				Content:   buf.String(),
			})
			if err != nil {
				return err
			}
			printWarnings(cmd.OutOrStdout(), written.Warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", written.Path)
		}
		return nil
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform [snapshot]",
	Short: "Scale, orient or lay out the plates",
	Long: `Modes: scale (about the origin), array (plates flat in a row),
stack (plates flat in a pile). Orient and custom need planes and matrices
and are available from scripts and the component API.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		f := cmd.Flags()
		mode, _ := f.GetString("mode")
		res, err := component.Transform(snap.Model, component.TransformParams{
			Mode:  mode,
			Scale: changed(cmd, "scale", f.GetFloat64),
			Step:  changed(cmd, "step", f.GetFloat64),
			Flip:  changed(cmd, "flip", f.GetBool),
		})
		if err != nil {
			return err
		}
		return saveModel(cmd, snap.ID, "transform", res.Model, res.Warnings)
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch [snapshot]",
	Short: "Swap the top and bottom faces of plates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		ids, _ := cmd.Flags().GetIntSlice("plates")
		res, err := component.SwitchTopBottom(snap.Model, ids)
		if err != nil {
			return err
		}
		return saveModel(cmd, snap.ID, "switch", res.Model, res.Warnings)
	},
}

var animCmd = &cobra.Command{
	Use:   "anim <module> [snapshot]",
	Short: "Show one frame of a module's insertion sequence",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 1))
		if err != nil {
			return err
		}
		a, err := snap.Model.Module(args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		res, err := component.Animation(&a,
			changed(cmd, "step", f.GetFloat64),
			orValue(changed(cmd, "retreat", f.GetFloat64), cfg.Preview.Retreat))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Status)
		for _, p := range res.Plates {
			fmt.Fprintf(out, "%-12s centroid %s\n", p.Label(), fmtVec(p.Centroid()))
		}
		return nil
	},
}

var spheresCmd = &cobra.Command{
	Use:   "spheres [snapshot]",
	Short: "Print a sphere on every contact",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		res := component.SphereInsertion(snap.Model,
			orValue(changed(cmd, "scale", cmd.Flags().GetFloat64), cfg.Preview.Scale))
		out := cmd.OutOrStdout()
		for i, s := range res.Spheres {
			fmt.Fprintf(out, "%s r=%g vector %s\n", fmtVec(s.Center), s.Radius, fmtVec(res.Vectors[i]))
		}
		return nil
	},
}

var femCmd = &cobra.Command{
	Use:   "fem [snapshot]",
	Short: "Print shell and joint data for structural analysis as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(component.FEM(snap.Model))
	},
}

var saveCmd = &cobra.Command{
	Use:   "save [snapshot]",
	Short: "Write a snapshot's model to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, snapshotArg(args, 0))
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap.Model, "", "  ")
		if err != nil {
			return err
		}
		f := cmd.Flags()
		folder, _ := f.GetString("folder")
		name, _ := f.GetString("name")
		res, err := component.Text(component.TextParams{
			Write:       true,
			Folder:      folder,
			Name:        name,
			Extension:   "json",
			Content:     string(data),
			Dated:       changed(cmd, "dated", f.GetBool),
			Incremental: changed(cmd, "incremental", f.GetBool),
		})
		if err != nil {
			return err
		}
		printWarnings(cmd.OutOrStdout(), res.Warnings)
		if res.Path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.Path)
		}
		return nil
	},
}

// deciCmd parses no flags so that negative numbers read as values. Root
// flags written before it reach it as arguments; the number is the last one.
var deciCmd = &cobra.Command{
	Use:                "deci <number>",
	Short:              "Split a number into its integer and decimal parts",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	Annotations:        map[string]string{"store": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		num, err := strconv.ParseFloat(args[len(args)-1], 64)
		if err != nil {
			return err
		}
		res, err := component.Deci(&num)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", res.Integer, strconv.FormatFloat(res.Decimal, 'f', -1, 64))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{fingersCmd, halflapCmd, tenonsCmd, sunriseCmd} {
		c.Flags().String("pairs", "", "contacts to joint, e.g. 0-1,1-2 (default all)")
		jointsCmd.AddCommand(c)
	}

	f := fingersCmd.Flags()
	f.Int("count1", 0, "fingers per side-to-side edge")
	f.Float64("length1", 0, "finger length on side-to-side edges (0: plate depth)")
	f.Float64("width1", 0, "finger width as a fraction of its cell")
	f.Int("count2", 0, "fingers per side-to-face edge")
	f.Float64("length2", 0, "finger length on side-to-face edges (0: plate depth)")
	f.Float64("width2", 0, "finger width as a fraction of its cell")
	f.Float64("spacing", 0, "clearance at both ends of the edge")
	f.Float64("shift", 0, "pattern shift in cells")
	f.Bool("mirror", false, "swap which plate owns the first finger")

	f = halflapCmd.Flags()
	f.Float64("proportion", 0, "share of the overlap cut from the moving plate")
	f.Float64("tolerance", 0, "slot clearance")
	f.Float64("min-angle", 0, "skip crossings shallower than this (degrees)")
	f.Float64("straight-height", 0, "minimum straight run before the entry chamfer")
	f.Float64("fillet-height", 0, "entry chamfer depth")
	f.Int("segments", 0, "stepped boxes in the chamfer")

	f = tenonsCmd.Flags()
	f.Int("count", 0, "tenons per contact")
	f.Float64("length", 0, "tenon length (0: through)")
	f.Float64("width", 0, "tenon width (0: half the pitch)")
	f.Float64("spacing", 0, "clearance at both ends of the edge")
	f.Float64("shift", 0, "pattern shift")
	f.Float64("side-tol", 0, "mortise side clearance")
	f.Float64("top-tol", 0, "mortise clearance along the edge")
	f.Float64("bottom-tol", 0, "tenon shortening")

	f = sunriseCmd.Flags()
	f.Int("count", 0, "keys per contact")
	f.Float64("width", 0, "key width (0: plate thickness)")
	f.Float64("spacing", 0, "key spacing (0: width)")
	f.Float64("spread-angle", 0, "fan angle (degrees)")
	f.String("direction", "", `forced insertion direction: "gravity" or "x,y,z"`)

	f = booleanCmd.Flags()
	f.IntSlice("plates", nil, "plates to merge (default all)")
	f.Float64("bool-tol", 0, "growth of cuts")
	f.Float64("merge-tol", 0, "growth of positives")

	f = fabCmd.Flags()
	f.IntSlice("plates", nil, "plates to mill (default all)")
	f.Float64("contour-radius", 0, "tool radius for outer contours")
	f.Float64("holes-radius", 0, "tool radius for holes and pockets")
	f.Bool("notch", false, "dogbone reliefs in inner corners")
	f.Bool("cylinder", false, "drill reliefs in inner corners")
	f.Bool("tbone", false, "t-bone reliefs in inner corners")
	f.Float64("limit", 0, "largest corner angle that gets a relief (degrees)")
	f.String("gcode", "", "write one G-code file per plate into this folder")
	f.Bool("from-bottom", false, "write G-code for the bottom face")

	f = transformCmd.Flags()
	f.String("mode", "scale", "scale, array or stack")
	f.Float64("scale", 1, "scale factor")
	f.Float64("step", 0, "gap between laid out plates")
	f.Bool("flip", false, "lay plates top face down")

	switchCmd.Flags().IntSlice("plates", nil, "plates to switch (default all)")

	f = animCmd.Flags()
	f.Float64("step", 1, "fraction of the sequence, 0 to 1")
	f.Float64("retreat", 0, "distance a moving plate starts from its place")

	spheresCmd.Flags().Float64("scale", 1, "sphere radius as a multiple of the thinner plate")

	importDXFCmd.Flags().Float64("thickness", 18, "plate thickness")
	importDXFCmd.Flags().String("name", "plate", "plate name prefix")

	f = saveCmd.Flags()
	f.String("folder", ".", "output folder")
	f.String("name", "model", "file name without extension")
	f.Bool("dated", false, "prefix the file name with the date")
	f.Bool("incremental", true, "never overwrite; add a numeric suffix")
}
