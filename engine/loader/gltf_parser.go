package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errNodeCycle          = errors.New("node hierarchy contains a cycle")
)

// parsedGLTF is a validated document plus the GLB binary chunk, if any.
type parsedGLTF struct {
	document *gltfDocument
	binSize  int
	bin      []byte
}

// parseGLTFBytes detects GLB by its magic number and parses either container.
//
// Parameters:
//   - data: the file contents
//
// Returns:
//   - *parsedGLTF: the validated document
//   - error: error if the container or JSON is malformed
func parseGLTFBytes(data []byte) (*parsedGLTF, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic {
		return parseGLB(data)
	}
	return parseGLTF(data)
}

// parseGLTF parses a glTF JSON file.
func parseGLTF(data []byte) (*parsedGLTF, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	p := &parsedGLTF{document: doc, binSize: -1}
	return p, p.validate()
}

// parseGLB parses a GLB binary file.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func parseGLB(data []byte) (*parsedGLTF, error) {
	if len(data) < 12 {
		return nil, errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonData, bin []byte
	binSize := -1

	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("chunk length %d exceeds remaining %d bytes", chunkHeader.ChunkLength, r.Len())
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = make([]byte, chunkHeader.ChunkLength)
			if _, err := io.ReadFull(r, jsonData); err != nil {
				return nil, fmt.Errorf("failed to read chunk data: %w", err)
			}
		case gltfGLBChunkBIN:
			binSize = int(chunkHeader.ChunkLength)
			bin = make([]byte, chunkHeader.ChunkLength)
			if _, err := io.ReadFull(r, bin); err != nil {
				return nil, fmt.Errorf("failed to read chunk data: %w", err)
			}
		default:
			if _, err := r.Seek(int64(chunkHeader.ChunkLength), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip chunk data: %w", err)
			}
		}
	}

	if jsonData == nil {
		return nil, errMissingJSONChunk
	}

	doc, err := decodeDocument(jsonData)
	if err != nil {
		return nil, err
	}
	p := &parsedGLTF{document: doc, binSize: binSize, bin: bin}
	return p, p.validate()
}

func decodeDocument(data []byte) (*gltfDocument, error) {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errInvalidGLTFVersion
	}
	return &doc, nil
}

// validate checks index references and that the embedded binary chunk covers buffer 0.
func (p *parsedGLTF) validate() error {
	doc := p.document

	for i, buf := range doc.Buffers {
		if buf.URI == "" && i == 0 && p.binSize >= 0 && p.binSize < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}

	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, c)
			}
		}
		if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(doc.Meshes)) {
			return fmt.Errorf("node %d: mesh index %d out of range", i, *n.Mesh)
		}
	}
	for i, s := range doc.Scenes {
		for _, root := range s.Nodes {
			if root < 0 || root >= len(doc.Nodes) {
				return fmt.Errorf("scene %d: node index %d out of range", i, root)
			}
		}
	}
	if doc.Scene != nil && (*doc.Scene < 0 || *doc.Scene >= len(doc.Scenes)) {
		return fmt.Errorf("default scene index %d out of range", *doc.Scene)
	}
	return nil
}
