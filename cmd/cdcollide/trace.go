package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akmonengine/collide"
	"github.com/akmonengine/collide/cdmap"
	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// parseVec reads "x,y,z" or "x y z".
func parseVec(text string) (mgl64.Vec3, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components in %q", text)
	}

	var v mgl64.Vec3
	for i, f := range fields {
		c, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("bad component %q in %q", f, text)
		}
		v[i] = c
	}
	return v, nil
}

func parseShape(name string, size float64) (geom.Shape, error) {
	switch name {
	case "point":
		return geom.PointShape(), nil
	case "box":
		return geom.AABBShape(mgl64.Vec3{}, mgl64.Vec3{size, size, size}), nil
	case "sphere":
		return geom.SphereShape(size), nil
	}
	return geom.Shape{}, fmt.Errorf("unknown shape %q", name)
}

func newIndex(name string) (collide.BroadPhase, error) {
	switch name {
	case "bvh":
		return collide.NewBVH(collide.MaxEntities), nil
	case "grid":
		return collide.NewSpatialHashGrid(collide.DefaultSpatialHashGridConfig()), nil
	}
	return nil, fmt.Errorf("unknown index %q", name)
}

// mapEntities lists the world and every entity naming a "*N" submodel, with
// entity ids matching their position in the map.
func mapEntities(m *cdmap.Map, baseHash uint64) []*collide.EntityState {
	var ents []*collide.EntityState
	for i := range m.Entities {
		view := m.Entity(i)

		submodel := -1
		if classname, _ := view.Get("classname"); classname == "worldspawn" {
			submodel = 0
		} else if model, ok := view.Get("model"); ok && strings.HasPrefix(model, "*") {
			n, err := strconv.Atoi(model[1:])
			if err == nil && n >= 0 && n < len(m.Models) {
				submodel = n
			}
		}
		if submodel < 0 {
			continue
		}

		ent := &collide.EntityState{
			ID:    collide.EntityID(i),
			Model: collide.ModelHash(baseHash, submodel),
		}
		if origin, ok := view.Get("origin"); ok {
			v, err := parseVec(origin)
			if err != nil {
				logger.Warningf("entity %d: ignoring origin: %v", i, err)
			} else {
				ent.Origin = v
			}
		}
		ents = append(ents, ent)
	}
	return ents
}

// Trace loads a map and prints the closest hit of a single trace.
func Trace(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("trace: expected one map file")
	}
	path := ctx.Args().First()

	from, err := parseVec(ctx.String("from"))
	if err != nil {
		return err
	}
	to, err := parseVec(ctx.String("to"))
	if err != nil {
		return err
	}
	shape, err := parseShape(ctx.String("shape"), ctx.Float64("size"))
	if err != nil {
		return err
	}
	mask, err := geom.ParseSolidity(ctx.String("mask"))
	if err != nil {
		return err
	}
	index, err := newIndex(ctx.String("index"))
	if err != nil {
		return err
	}

	m, err := cdmap.ReadFile(path)
	if err != nil {
		return err
	}

	baseHash := collide.StringHash(path)
	storage := collide.NewStorage()
	storage.LoadMapCollisionData(m, baseHash)

	scene := collide.NewScene(storage, index)
	if err := scene.Update(mapEntities(m, baseHash)); err != nil {
		return err
	}
	logger.Infof("linked %d entities", scene.Len())

	tr := scene.Trace(geom.MakeRayStartEnd(from, to), shape, mask)
	printTrace(m, tr)
	return nil
}

func printTrace(m *cdmap.Map, tr collide.Trace) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Hit", "Fraction", "End", "Normal", "Solidity", "Entity"})

	entity := "-"
	if tr.HitSomething {
		classname, _ := m.Entity(int(tr.EntityID)).Get("classname")
		entity = fmt.Sprintf("%d (%s)", tr.EntityID, classname)
	}

	table.Append([]string{
		strconv.FormatBool(tr.HitSomething),
		fmt.Sprintf("%.4f", tr.Fraction),
		fmtVec(tr.EndPos),
		fmtVec(tr.Normal),
		tr.Solidity.String(),
		entity,
	})
	table.Render()
}

func fmtVec(v mgl64.Vec3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", v[0], v[1], v[2])
}
