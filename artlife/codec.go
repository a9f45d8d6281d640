package artlife

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// GenomeArchive is an ordered list of pixel frames, one genome per frame, in
// population order. It is the only form in which genomes are persisted.
type GenomeArchive struct {
	Frames []image.Image
}

// Len returns the number of frames.
func (a *GenomeArchive) Len() int {
	return len(a.Frames)
}

// Codec packs genomes into S x S RGB frames and back.
//
// A genome is first laid out as one S x S gene-id matrix:
//
//	rows [0, In)  cols [0, H)       inputHidden
//	rows [In, S)  cols [0, H)       hiddenHidden
//	rows [In, S)  cols [H, H+Out)   hiddenOutput
//
// with every other cell zero. Red holds that matrix as is, green holds it
// rotated 180 degrees and blue holds it rotated 90 degrees clockwise. On decode
// each channel is rotated back and the three copies are averaged, which absorbs
// per-channel palette quantization when the archive is stored with a limited
// palette.
type Codec struct {
	Sizes LayerSizes
}

// NewCodec creates a codec for the given layer sizes.
func NewCodec(sizes LayerSizes) (*Codec, error) {
	if err := sizes.Validate(); err != nil {
		return nil, fmt.Errorf("cannot create codec: %w", err)
	}
	return &Codec{Sizes: sizes}, nil
}

// EncodeGenome renders one genome as an S x S opaque frame.
func (c *Codec) EncodeGenome(g Genome) (*image.NRGBA, error) {
	if !g.Fits(c.Sizes) {
		return nil, fmt.Errorf("genome shape does not match layer sizes %s", c.Sizes)
	}
	s := c.Sizes.FrameSide()
	red := c.assemble(g)
	green := rotate180(red)
	blue := rotate90(red)

	img := image.NewNRGBA(image.Rect(0, 0, s, s))
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(red.At(y, x)),
				G: uint8(green.At(y, x)),
				B: uint8(blue.At(y, x)),
				A: 0xff,
			})
		}
	}
	return img, nil
}

// DecodeGenome reconstructs a genome from one frame. Alpha is ignored.
func (c *Codec) DecodeGenome(frame image.Image) (Genome, error) {
	s := c.Sizes.FrameSide()
	b := frame.Bounds()
	if b.Dx() != s || b.Dy() != s {
		return Genome{}, &ArchiveFormatError{
			Frame:  -1,
			Reason: fmt.Sprintf("frame is %dx%d, expected %dx%d for layer sizes %s", b.Dx(), b.Dy(), s, s, c.Sizes),
		}
	}

	red := NewWeightMatrix(s, s)
	green := NewWeightMatrix(s, s)
	blue := NewWeightMatrix(s, s)
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			px := color.NRGBAModel.Convert(frame.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			red.Set(y, x, GeneID(px.R))
			green.Set(y, x, GeneID(px.G))
			blue.Set(y, x, GeneID(px.B))
		}
	}

	// Undo each channel's rotation, then average the three candidates.
	green = rotate180(green)
	blue = rotate270(blue)
	merged := NewWeightMatrix(s, s)
	for i := range merged.Genes {
		sum := int(red.Genes[i]) + int(green.Genes[i]) + int(blue.Genes[i])
		merged.Genes[i] = clampGene(roundNearest(float64(sum) / 3.0))
	}
	return c.split(merged), nil
}

// Encode packs a population into an archive, one frame per genome.
func (c *Codec) Encode(pop Population) (*GenomeArchive, error) {
	archive := &GenomeArchive{Frames: make([]image.Image, 0, len(pop))}
	for i, g := range pop {
		frame, err := c.EncodeGenome(g)
		if err != nil {
			return nil, fmt.Errorf("failed to encode genome %d: %w", i, err)
		}
		archive.Frames = append(archive.Frames, frame)
	}
	return archive, nil
}

// Decode unpacks every frame of an archive, in order, into a population.
func (c *Codec) Decode(archive *GenomeArchive) (Population, error) {
	if archive == nil || len(archive.Frames) == 0 {
		return nil, &ArchiveFormatError{Frame: -1, Reason: "archive has no frames"}
	}
	pop := make(Population, len(archive.Frames))
	for i, frame := range archive.Frames {
		g, err := c.DecodeGenome(frame)
		if err != nil {
			var afe *ArchiveFormatError
			if errors.As(err, &afe) {
				afe.Frame = i
			}
			return nil, err
		}
		pop[i] = g
	}
	return pop, nil
}

// assemble lays the three matrices out in one S x S grid.
func (c *Codec) assemble(g Genome) WeightMatrix {
	in, h := c.Sizes.Inputs, c.Sizes.Hidden
	s := c.Sizes.FrameSide()
	grid := NewWeightMatrix(s, s)
	for r := 0; r < g.InputHidden.Rows; r++ {
		for col := 0; col < g.InputHidden.Cols; col++ {
			grid.Set(r, col, g.InputHidden.At(r, col))
		}
	}
	for r := 0; r < g.HiddenHidden.Rows; r++ {
		for col := 0; col < g.HiddenHidden.Cols; col++ {
			grid.Set(in+r, col, g.HiddenHidden.At(r, col))
		}
	}
	for r := 0; r < g.HiddenOutput.Rows; r++ {
		for col := 0; col < g.HiddenOutput.Cols; col++ {
			grid.Set(in+r, h+col, g.HiddenOutput.At(r, col))
		}
	}
	return grid
}

// split slices an S x S grid back into the three matrices. Cells outside the
// three regions are not read.
func (c *Codec) split(grid WeightMatrix) Genome {
	in, h := c.Sizes.Inputs, c.Sizes.Hidden
	g := NewGenome(c.Sizes)
	for r := 0; r < g.InputHidden.Rows; r++ {
		for col := 0; col < g.InputHidden.Cols; col++ {
			g.InputHidden.Set(r, col, grid.At(r, col))
		}
	}
	for r := 0; r < g.HiddenHidden.Rows; r++ {
		for col := 0; col < g.HiddenHidden.Cols; col++ {
			g.HiddenHidden.Set(r, col, grid.At(in+r, col))
		}
	}
	for r := 0; r < g.HiddenOutput.Rows; r++ {
		for col := 0; col < g.HiddenOutput.Cols; col++ {
			g.HiddenOutput.Set(r, col, grid.At(in+r, h+col))
		}
	}
	return g
}

// rotate180 turns a square grid half a turn.
func rotate180(m WeightMatrix) WeightMatrix {
	n := m.Rows
	out := NewWeightMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.Set(r, c, m.At(n-1-r, n-1-c))
		}
	}
	return out
}

// rotate90 turns a square grid a quarter turn clockwise.
func rotate90(m WeightMatrix) WeightMatrix {
	n := m.Rows
	out := NewWeightMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.Set(r, c, m.At(n-1-c, r))
		}
	}
	return out
}

// rotate270 turns a square grid three quarter turns clockwise, undoing rotate90.
func rotate270(m WeightMatrix) WeightMatrix {
	n := m.Rows
	out := NewWeightMatrix(n, n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out.Set(r, c, m.At(c, n-1-r))
		}
	}
	return out
}
