package light

import "github.com/sandertv/gophertunnel/minecraft/protocol"

// Faces are enumerated axis-major: -x, +x, -y, +y, -z, +z.
var faceDirs = [6][3]int32{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// propagator runs one breadth-first relaxation over a single section. It
// writes only its own level buffer; neighbor sections are read through the
// source. Because every step is a monotonic maximum-relaxation, the result is
// independent of traversal order.
type propagator struct {
	src        Source
	pos        protocol.SubChunkPos
	ox, oy, oz int

	lv      [volume]uint8
	queue   []uint16
	faces   [6]bool
	changed bool
}

func newPropagator(src Source, pos protocol.SubChunkPos) *propagator {
	return &propagator{
		src: src, pos: pos,
		ox: int(pos[0]) << 4, oy: int(pos[1]) << 4, oz: int(pos[2]) << 4,
		queue: make([]uint16, 0, 128),
	}
}

// set raises the level of the voxel at index i and queues it for expansion.
// Values that can still feed a neighbor section mark the faces the voxel
// touches, which later become the frontier.
func (p *propagator) set(i uint16, v uint8) {
	p.lv[i] = v
	p.queue = append(p.queue, i)
	p.changed = true
	if v > 1 {
		p.markFaces(i)
	}
}

func (p *propagator) markFaces(i uint16) {
	x, y, z := i&0xf, i>>8, (i>>4)&0xf
	if x == 0 {
		p.faces[0] = true
	} else if x == 15 {
		p.faces[1] = true
	}
	if y == 0 {
		p.faces[2] = true
	} else if y == 15 {
		p.faces[3] = true
	}
	if z == 0 {
		p.faces[4] = true
	} else if z == 15 {
		p.faces[5] = true
	}
}

// spread attempts to raise the voxel at the section-local coordinates passed
// to level v. It refuses to cross into voxels whose block does not pass
// light; a blocked face simply is not crossed.
func (p *propagator) spread(x, y, z int, v uint8) {
	if x < 0 || x > 15 || y < 0 || y > 15 || z < 0 || z > 15 {
		return
	}
	i := voxelIndex(uint8(x), uint8(y), uint8(z))
	if p.lv[i] >= v {
		return
	}
	if !Passes(p.src.Block(p.ox+x, p.oy+y, p.oz+z)) {
		return
	}
	p.set(i, v)
}

// run drains the queue, attenuating by one level per voxel step. Voxels may
// be queued several times with increasing levels; the level is re-read on pop
// so stale entries expand at their final value.
func (p *propagator) run() {
	for head := 0; head < len(p.queue); head++ {
		i := p.queue[head]
		l := p.lv[i]
		if l <= 1 {
			continue
		}
		x, y, z := int(i&0xf), int(i>>8), int(i>>4)&0xf
		p.spread(x-1, y, z, l-1)
		p.spread(x+1, y, z, l-1)
		p.spread(x, y-1, z, l-1)
		p.spread(x, y+1, z, l-1)
		p.spread(x, y, z-1, l-1)
		p.spread(x, y, z+1, l-1)
	}
}

// seedEmitters places the block light sources of the section: every voxel
// whose block emits light starts at its emission level.
func (p *propagator) seedEmitters() {
	for i := uint16(0); i < volume; i++ {
		x, y, z := int(i&0xf), int(i>>8), int(i>>4)&0xf
		e := Emission(p.src.Block(p.ox+x, p.oy+y, p.oz+z))
		if e > 0 {
			p.set(i, e)
		}
	}
}

// seedSky places the sky light sources of the section: every voxel at or
// above its column's heightmap entry is in open sky and starts at MaxLevel.
func (p *propagator) seedSky() {
	hm, ok := p.src.HeightMap(protocol.ChunkPos{p.pos[0], p.pos[2]})
	if !ok {
		return
	}
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			lo := int(hm.At(x, z)) - p.oy
			if lo < 0 {
				lo = 0
			}
			for y := lo; y < 16; y++ {
				p.set(voxelIndex(x, uint8(y), z), MaxLevel)
			}
		}
	}
}

// seedBoundary seeds the propagator from the boundary plane of the neighbor
// section across face f. Unloaded or empty neighbors contribute nothing.
func (p *propagator) seedBoundary(f int, k Kind) {
	d := faceDirs[f]
	nst := p.src.Store(protocol.SubChunkPos{p.pos[0] + d[0], p.pos[1] + d[1], p.pos[2] + d[2]}, k)
	if nst == nil {
		return
	}
	nc := nst.content.Load()
	if nc == nil {
		return
	}

	axis := f >> 1
	ourV, nbrV := 0, 15
	if f&1 == 1 {
		ourV, nbrV = 15, 0
	}
	oa, ob := (axis+1)%3, (axis+2)%3

	var our, nbr [3]int
	our[axis], nbr[axis] = ourV, nbrV
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			our[oa], nbr[oa] = a, a
			our[ob], nbr[ob] = b, b
			l := nibbleAt(nc, voxelIndex(uint8(nbr[0]), uint8(nbr[1]), uint8(nbr[2])))
			if l <= 1 {
				continue
			}
			p.spread(our[0], our[1], our[2], l-1)
		}
	}
}

// frontier returns the positions of the neighbor sections that must be
// recomputed with this section's new boundary values.
func (p *propagator) frontier() []protocol.SubChunkPos {
	r := p.src.Range()
	minSec, maxSec := int32(r.Min()>>4), int32(r.Max()>>4)
	var out []protocol.SubChunkPos
	for f, d := range faceDirs {
		if !p.faces[f] {
			continue
		}
		n := protocol.SubChunkPos{p.pos[0] + d[0], p.pos[1] + d[1], p.pos[2] + d[2]}
		if n[1] < minSec || n[1] > maxSec {
			continue
		}
		out = append(out, n)
	}
	return out
}

// CalculateInternal recomputes the section's light field from its own sources
// alone, replacing whatever the store held. It returns the frontier of
// neighbor sections whose light the new content may raise.
func (s *Store) CalculateInternal(src Source, pos protocol.SubChunkPos) []protocol.SubChunkPos {
	p := newPropagator(src, pos)
	if s.kind == Sky {
		p.seedSky()
	} else {
		p.seedEmitters()
	}
	p.run()
	s.publish(&p.lv)
	s.needsUpdate.Store(false)
	s.needsSend.Store(true)
	return p.frontier()
}

// CalculateExternal raises the section's light field with the boundary values
// of its six neighbor sections, keeping its current content as the base. If
// nothing changed, the store is left untouched and no frontier is returned;
// otherwise the ripple continues with the faces that changed.
func (s *Store) CalculateExternal(src Source, pos protocol.SubChunkPos) []protocol.SubChunkPos {
	p := newPropagator(src, pos)
	if c := s.content.Load(); c != nil {
		for i := uint16(0); i < volume; i++ {
			p.lv[i] = nibbleAt(c, i)
		}
	}
	for f := range faceDirs {
		p.seedBoundary(f, s.kind)
	}
	if !p.changed {
		return nil
	}
	// Frontier faces are only those raised by this pass, not every lit face of
	// the base content.
	p.run()
	s.publish(&p.lv)
	s.needsSend.Store(true)
	return p.frontier()
}
