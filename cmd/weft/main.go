// Package main provides the Weft CLI.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/weft-ml/weft/backend/cpu"
	"github.com/weft-ml/weft/dit"
	"github.com/weft-ml/weft/tensor"
)

const version = "v0.1.0-dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Weft %s\n", version)
	case "demo":
		if err := runDemo(os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("demo failed")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Weft - dual-stream video diffusion transformer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Run one denoise step on a random latent")
}

// runDemo executes a single forward pass of a reduced-size model with
// randomly initialized weights, conditioned on a tokenized prompt.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	prompt := fs.String("prompt", "a calico cat walking through tall grass", "text prompt")
	frames := fs.Int("frames", 2, "latent frame count")
	size := fs.Int("size", 16, "latent height and width")
	layers := fs.Int("layers", 4, "transformer depth")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := dit.Config{
		PatchSize:    2,
		Heads:        4,
		HeadDim:      32,
		Layers:       *layers,
		TextDim:      128,
		InChannels:   12,
		TextEmbedDim: 256,
		TimeEmbedDim: 64,
		MaxSeqLen:    256,
	}
	backend := cpu.New()

	caption, mask, count, err := encodePrompt(*prompt, cfg, backend)
	if err != nil {
		return err
	}
	log.Info().Str("prompt", *prompt).Int("tokens", count).Msg("prompt encoded")

	start := time.Now()
	model := dit.New(cfg, backend)
	log.Info().
		Int("layers", cfg.Layers).
		Int("dim", model.Dim()).
		Dur("elapsed", time.Since(start)).
		Msg("model initialized")

	video := tensor.Randn[float32](tensor.Shape{1, cfg.InChannels, *frames, *size, *size}, backend)
	timestep, err := tensor.FromSlice([]float32{500}, tensor.Shape{1}, backend)
	if err != nil {
		return err
	}

	start = time.Now()
	out, err := model.Forward(video, caption, timestep, mask, nil)
	if err != nil {
		return err
	}
	log.Info().
		Str("sample", fmt.Sprintf("%v", out.Sample.Shape())).
		Dur("elapsed", time.Since(start)).
		Msg("denoise step complete")

	return nil
}

// encodePrompt tokenizes the prompt and builds placeholder caption
// features plus the attention mask. Real deployments substitute a text
// encoder's hidden states; the demo derives a deterministic sinusoidal
// feature vector from each token ID so conditioning varies with the
// prompt.
func encodePrompt(prompt string, cfg dit.Config, backend *cpu.Backend) (caption, mask *tensor.Tensor[float32, *cpu.Backend], count int, err error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, nil, 0, fmt.Errorf("load tokenizer: %w", err)
	}

	ids := enc.Encode(prompt, nil, nil)
	if len(ids) == 0 {
		return nil, nil, 0, fmt.Errorf("prompt produced no tokens")
	}
	if len(ids) > cfg.MaxSeqLen {
		ids = ids[:cfg.MaxSeqLen]
	}

	seq := len(ids)
	features := make([]float32, seq*cfg.TextEmbedDim)
	for s, id := range ids {
		for d := 0; d < cfg.TextEmbedDim/2; d++ {
			angle := float64(id) / math.Pow(10000, 2*float64(d)/float64(cfg.TextEmbedDim))
			features[s*cfg.TextEmbedDim+2*d] = float32(math.Sin(angle))
			features[s*cfg.TextEmbedDim+2*d+1] = float32(math.Cos(angle))
		}
	}

	caption, err = tensor.FromSlice(features, tensor.Shape{1, seq, cfg.TextEmbedDim}, backend)
	if err != nil {
		return nil, nil, 0, err
	}
	mask = tensor.Ones[float32](tensor.Shape{1, seq}, backend)
	return caption, mask, seq, nil
}
