package main

import (
	"fmt"
	"os"

	"github.com/akmonengine/collide/cdmap"
	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/kdtree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/urfave/cli"
)

const wallThickness = 16

func minMax(minX, minY, minZ, maxX, maxY, maxZ float64) geom.MinMax3 {
	return geom.MinMax3{Mins: mgl64.Vec3{minX, minY, minZ}, Maxs: mgl64.Vec3{maxX, maxY, maxZ}}
}

// synthRoom builds a closed room of half width size centered on the origin,
// split at x = 0, with a ladder on the east wall and a door as submodel 1.
func synthRoom(size, height float64) *cdmap.Map {
	var b kdtree.Builder
	t := float64(wallThickness)

	floor := b.AddBoxBrush(minMax(-size, -size, -t, size, size, 0), geom.SolidSolid)
	ceiling := b.AddBoxBrush(minMax(-size, -size, height, size, size, height+t), geom.SolidSolid)
	south := b.AddBoxBrush(minMax(-size, -size-t, 0, size, -size, height), geom.SolidSolid)
	north := b.AddBoxBrush(minMax(-size, size, 0, size, size+t, height), geom.SolidSolid)
	west := b.AddBoxBrush(minMax(-size-t, -size, 0, -size, size, height), geom.SolidSolid)
	east := b.AddBoxBrush(minMax(size, -size, 0, size+t, size, height), geom.SolidSolid)
	ladder := b.AddBoxBrush(minMax(size-8, -16, 0, size, 16, height), geom.SolidLadder)
	door := b.AddBoxBrush(minMax(-8, -64, 0, 8, 64, height*3/4), geom.SolidSolid)

	world := b.Split(0, 0,
		func(b *kdtree.Builder) { b.Leaf(floor, ceiling, south, north, west) },
		func(b *kdtree.Builder) { b.Leaf(floor, ceiling, south, north, east, ladder) },
	)
	doorRoot := b.Leaf(door)

	m := cdmap.FromGeometry(b.Geometry(), world, minMax(-size-t, -size-t, -t, size+t, size+t, height+t))
	m.Models = append(m.Models, cdmap.Model{Bounds: b.Geometry().Brushes[door].Bounds, Root: doorRoot})
	m.AddEntity("classname", "func_door", "model", "*1", "origin", "0 0 0")
	return m
}

// Synth writes the test room to the given file.
func Synth(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("synth: expected one output file")
	}
	out := ctx.Args().First()

	m := synthRoom(ctx.Float64("size"), ctx.Float64("height"))
	data := cdmap.Encode(m)
	if ctx.Bool("zstd") {
		var err error
		if data, err = cdmap.Compress(data); err != nil {
			return err
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	logger.Noticef("wrote %s (%d bytes)", out, len(data))
	return nil
}
