package heifconvert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"photoreport/internal/deps"
	"photoreport/internal/ingest"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTempDir sets the parent directory for per-conversion scratch space.
func WithTempDir(dir string) Option {
	return func(c *Client) {
		c.tempDir = strings.TrimSpace(dir)
	}
}

// Client wraps heif-convert CLI interactions.
type Client struct {
	binary  string
	tempDir string
	exec    Executor
}

// New constructs a heif-convert client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("heif-convert binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Available reports whether the converter binary can be found right now.
func (c *Client) Available() bool {
	return deps.Check(deps.HEICConverter(c.binary)).Available
}

// Convert runs heif-convert over req.Payload and returns the encoded images.
func (c *Client) Convert(ctx context.Context, req ingest.Conversion) ([][]byte, error) {
	if len(req.Payload) == 0 {
		return nil, errors.New("empty heic payload")
	}
	ext, err := extensionFor(req.TargetType)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(c.tempDir, "photoreport-heic-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.heic")
	if err := os.WriteFile(input, req.Payload, 0o600); err != nil {
		return nil, fmt.Errorf("write heic input: %w", err)
	}
	output := filepath.Join(dir, "output"+ext)

	args := []string{"-q", strconv.Itoa(qualityPercent(req.Quality)), input, output}
	if out, err := c.exec.Run(ctx, c.binary, args); err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return nil, fmt.Errorf("heif-convert: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("heif-convert: %w", err)
	}

	paths, err := collectOutputs(dir, "output", ext)
	if err != nil {
		return nil, err
	}
	payloads := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read converted image: %w", err)
		}
		payloads = append(payloads, data)
	}
	return payloads, nil
}

func extensionFor(mediaType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "", "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	default:
		return "", fmt.Errorf("unsupported conversion target %q", mediaType)
	}
}

func qualityPercent(q float64) int {
	if q <= 0 || q > 1 {
		q = 0.9
	}
	return int(math.Round(q * 100))
}

type indexedOutput struct {
	path  string
	index int
}

// collectOutputs finds "<base><ext>" or, for multi-image inputs,
// "<base>-N<ext>" files ordered by N.
func collectOutputs(dir, base, ext string) ([]string, error) {
	single := filepath.Join(dir, base+ext)
	if _, err := os.Stat(single); err == nil {
		return []string{single}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("inspect converter outputs: %w", err)
	}
	var outputs []indexedOutput
	prefix := base + "-"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil {
			continue
		}
		outputs = append(outputs, indexedOutput{path: filepath.Join(dir, name), index: n})
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].index < outputs[j].index })

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		paths = append(paths, o.path)
	}
	return paths, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	err := cmd.Run()
	return combined.Bytes(), err
}
