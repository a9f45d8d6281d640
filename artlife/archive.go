package artlife

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"

	"github.com/soniakeys/quant/median"
)

// frameDelay is the per-frame display time, in 100ths of a second.
const frameDelay = 20

// WriteArchive stores the archive as an animated GIF. Every frame carries its own
// palette: exact when the frame has at most 256 colors, otherwise a 256-color
// median-cut palette with every pixel mapped to its nearest entry.
func WriteArchive(w io.Writer, archive *GenomeArchive) error {
	if archive == nil || len(archive.Frames) == 0 {
		return &ArchiveFormatError{Frame: -1, Reason: "archive has no frames"}
	}
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(archive.Frames)),
		Delay:     make([]int, 0, len(archive.Frames)),
		LoopCount: 0,
	}
	first := archive.Frames[0].Bounds()
	for i, frame := range archive.Frames {
		if frame.Bounds().Dx() != first.Dx() || frame.Bounds().Dy() != first.Dy() {
			return &ArchiveFormatError{Frame: i, Reason: "frames must all have the same size"}
		}
		anim.Image = append(anim.Image, toPaletted(frame))
		anim.Delay = append(anim.Delay, frameDelay)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode archive gif: %w", err)
	}
	return nil
}

// ReadArchive parses an animated GIF into an archive. Frame order is preserved.
func ReadArchive(r io.Reader) (*GenomeArchive, error) {
	anim, err := gif.DecodeAll(r)
	if err != nil {
		return nil, &ArchiveFormatError{Frame: -1, Reason: "cannot decode gif", Err: err}
	}
	if len(anim.Image) == 0 {
		return nil, &ArchiveFormatError{Frame: -1, Reason: "archive has no frames"}
	}
	archive := &GenomeArchive{Frames: make([]image.Image, len(anim.Image))}
	for i, frame := range anim.Image {
		archive.Frames[i] = frame
	}
	return archive, nil
}

// SaveArchive writes the archive to a GIF file.
func SaveArchive(path string, archive *GenomeArchive) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file '%s': %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := WriteArchive(buf, archive); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write archive file '%s': %w", path, err)
	}
	return file.Close()
}

// LoadArchive reads a GIF archive file.
func LoadArchive(path string) (*GenomeArchive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file '%s': %w", path, err)
	}
	defer file.Close()
	return ReadArchive(bufio.NewReader(file))
}

// SavePopulation encodes a population and writes it as a GIF archive.
func (c *Codec) SavePopulation(path string, pop Population) error {
	archive, err := c.Encode(pop)
	if err != nil {
		return err
	}
	return SaveArchive(path, archive)
}

// LoadPopulation reads a GIF archive and decodes it into a population.
func (c *Codec) LoadPopulation(path string) (Population, error) {
	archive, err := LoadArchive(path)
	if err != nil {
		return nil, err
	}
	pop, err := c.Decode(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to decode archive '%s': %w", path, err)
	}
	return pop, nil
}

type colorCount struct {
	c color.NRGBA
	n int
}

// toPaletted converts a frame to a paletted image with at most 256 opaque
// colors. A frame with few enough colors keeps them exactly, most frequent
// first. Larger frames get a median-cut palette and every pixel is mapped to
// its nearest entry.
func toPaletted(frame image.Image) *image.Paletted {
	b := frame.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	opaque := image.NewNRGBA(rect)
	counts := make(map[color.NRGBA]int)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := color.NRGBAModel.Convert(frame.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			px.A = 0xff
			opaque.SetNRGBA(x, y, px)
			counts[px]++
		}
	}
	if len(counts) > 256 {
		pal := median.Quantizer(256).Quantize(make(color.Palette, 0, 256), opaque)
		out := image.NewPaletted(rect, pal)
		draw.Draw(out, rect, opaque, image.Point{}, draw.Src)
		return out
	}

	ranked := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		ranked = append(ranked, colorCount{c: c, n: n})
	}
	// Most frequent first; ties by RGB value so the palette is deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return packRGB(ranked[i].c) < packRGB(ranked[j].c)
	})

	pal := make(color.Palette, len(ranked))
	index := make(map[color.NRGBA]uint8, len(ranked))
	for i, cc := range ranked {
		pal[i] = cc.c
		index[cc.c] = uint8(i)
	}
	out := image.NewPaletted(rect, pal)
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.SetColorIndex(x, y, index[opaque.NRGBAAt(x, y)])
		}
	}
	return out
}

func packRGB(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
