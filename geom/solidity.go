package geom

import (
	"fmt"
	"strings"
)

// Solidity classifies which kinds of queries a surface or entity blocks.
type Solidity uint32

const (
	SolidNotSolid     Solidity = 0
	SolidPlayerClip   Solidity = 1 << 0
	SolidWeaponClip   Solidity = 1 << 1
	SolidWallbangable Solidity = 1 << 2
	SolidLadder       Solidity = 1 << 3
	SolidTrigger      Solidity = 1 << 4
	SolidPlayer       Solidity = 1 << 5

	SolidSolid      = SolidPlayerClip | SolidWeaponClip
	SolidShot       = SolidWeaponClip | SolidWallbangable | SolidPlayer
	SolidEverything = SolidSolid | SolidWallbangable | SolidLadder | SolidTrigger | SolidPlayer
)

var solidityNames = []struct {
	bit  Solidity
	name string
}{
	{SolidPlayerClip, "playerclip"},
	{SolidWeaponClip, "weaponclip"},
	{SolidWallbangable, "wallbangable"},
	{SolidLadder, "ladder"},
	{SolidTrigger, "trigger"},
	{SolidPlayer, "player"},
}

// Blocks reports whether s has any bit of mask set.
func (s Solidity) Blocks(mask Solidity) bool {
	return s&mask != 0
}

func (s Solidity) String() string {
	if s == SolidNotSolid {
		return "notsolid"
	}

	var parts []string
	for _, n := range solidityNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

var solidityAliases = map[string]Solidity{
	"notsolid":   SolidNotSolid,
	"solid":      SolidSolid,
	"shot":       SolidShot,
	"everything": SolidEverything,
}

// ParseSolidity reads the "|" separated form produced by String. The
// composites "solid", "shot" and "everything" are accepted too.
func ParseSolidity(text string) (Solidity, error) {
	var s Solidity
	for _, part := range strings.Split(text, "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		if bit, ok := solidityAliases[part]; ok {
			s |= bit
			continue
		}

		found := false
		for _, n := range solidityNames {
			if n.name == part {
				s |= n.bit
				found = true
				break
			}
		}
		if !found {
			return SolidNotSolid, fmt.Errorf("unknown solidity %q", part)
		}
	}
	return s, nil
}
