package util

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// ChunkPosFromBlockPos returns the position of the chunk holding the block
// position passed.
func ChunkPosFromBlockPos(pos cube.Pos) protocol.ChunkPos {
	return protocol.ChunkPos{int32(pos[0] >> 4), int32(pos[2] >> 4)}
}

// SubChunkPosFromBlockPos returns the position of the section holding the
// block position passed.
func SubChunkPosFromBlockPos(pos cube.Pos) protocol.SubChunkPos {
	return protocol.SubChunkPos{int32(pos[0] >> 4), int32(pos[1] >> 4), int32(pos[2] >> 4)}
}
