package textreel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
)

// ReelExtension is the conventional file extension of reel files.
const ReelExtension = ".txrl"

const reelVersion = 1

var reelMagic = [4]byte{'T', 'X', 'R', 'L'}

// WriteReel writes a frame buffer as a zstd compressed reel: the magic
// "TXRL", a version byte, the frame rate as a big endian float64, the frame
// count as a big endian uint32, then every frame in the GlyphGrid binary
// form.
func WriteReel(w io.Writer, fb *FrameBuffer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}

	wr := bufio.NewWriter(enc)

	var header [17]byte
	copy(header[:4], reelMagic[:])
	header[4] = reelVersion
	binary.BigEndian.PutUint64(header[5:], math.Float64bits(fb.FPS()))
	binary.BigEndian.PutUint32(header[13:], uint32(fb.Len()))

	if _, err := wr.Write(header[:]); err != nil {
		enc.Close()
		return err
	}

	for i := 0; i < fb.Len(); i++ {
		if _, err := fb.Frame(i).WriteTo(wr); err != nil {
			enc.Close()
			return fmt.Errorf("textreel: WriteReel: frame %d: %w", i, err)
		}
	}

	if err := wr.Flush(); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

// ReadReel reads a frame buffer written by WriteReel.
func ReadReel(r io.Reader) (*FrameBuffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	rd := bufio.NewReader(dec)

	var header [17]byte
	if _, err := io.ReadFull(rd, header[:]); err != nil {
		return nil, fmt.Errorf("textreel: ReadReel: header: %w", err)
	}

	if [4]byte(header[:4]) != reelMagic {
		return nil, errors.New("textreel: ReadReel: not a reel file")
	}
	if header[4] != reelVersion {
		return nil, fmt.Errorf("textreel: ReadReel: unsupported version %d", header[4])
	}

	fps := math.Float64frombits(binary.BigEndian.Uint64(header[5:]))
	count := int(binary.BigEndian.Uint32(header[13:]))
	if !validRate(fps) {
		return nil, fmt.Errorf("textreel: ReadReel: invalid frame rate %v", fps)
	}
	if count == 0 {
		return nil, ErrEmptyResult
	}

	frames := make([]*GlyphGrid, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		grid, err := ReadGrid(rd)
		if err == io.EOF {
			return nil, fmt.Errorf("textreel: ReadReel: expected %d frames, got %d", count, i)
		} else if err != nil {
			return nil, fmt.Errorf("textreel: ReadReel: frame %d: %w", i, err)
		}
		frames = append(frames, grid)
	}

	return NewFrameBuffer(frames, fps), nil
}
