package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrNotAnImage = errors.New("payload is not an image")

const (
	RelAssociation    = "association"
	RelGeneralization = "generalization"
	RelAggregation    = "aggregation"
	RelComposition    = "composition"
	RelDependency     = "dependency"
)

type Generator interface {
	Generate(ctx context.Context, parts ...Part) (string, error)
}

// InvalidOutputError reports LLM output that is not the expected JSON.
type InvalidOutputError struct {
	Raw string
	Err error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("invalid diagram output: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

type Attribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Method struct {
	Name       string `json:"name"`
	Parameters string `json:"parameters"`
	ReturnType string `json:"returnType"`
}

type Class struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
	Methods    []Method    `json:"methods"`
}

type Relationship struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Labels   []string `json:"labels"`
}

type Diagram struct {
	Classes       []Class        `json:"classes"`
	Relationships []Relationship `json:"relationships"`
}

type node struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
	Methods    []Method    `json:"methods"`
}

type edgeEnd struct {
	Shape   string `json:"shape"`
	Fill    string `json:"fill"`
	Size    string `json:"size"`
	Diamond string `json:"diamond"`
}

type edgeLine struct {
	Style string `json:"style"`
}

type rawEdge struct {
	ID         string   `json:"id"`
	SourceName string   `json:"sourceName"`
	TargetName string   `json:"targetName"`
	Head       edgeEnd  `json:"head"`
	Tail       edgeEnd  `json:"tail"`
	Line       edgeLine `json:"line"`
	Labels     []string `json:"labels"`
}

type imageOutput struct {
	Nodes []node    `json:"nodes"`
	Edges []rawEdge `json:"edges_raw"`
}

// DiagramService turns natural-language prompts and diagram images into UML
// documents.
type DiagramService struct {
	gen Generator
}

func NewDiagramService(g Generator) *DiagramService {
	return &DiagramService{gen: g}
}

// IsEditRequest reports whether prompt asks to change an existing model.
func IsEditRequest(prompt string) bool {
	lower := strings.ToLower(prompt)
	return lo.SomeBy(editKeywords, func(k string) bool {
		return strings.Contains(lower, k)
	})
}

// FromPrompt returns the UML JSON produced for prompt. Edit prompts yield an
// {"original","edited"} pair, other prompts a single diagram.
func (s *DiagramService) FromPrompt(ctx context.Context, prompt string) (json.RawMessage, error) {
	instructions := createInstructions
	if IsEditRequest(prompt) {
		instructions = editInstructions
	}

	text, err := s.gen.Generate(ctx, Part{Text: fmt.Sprintf(instructions, prompt)})
	if err != nil {
		return nil, fmt.Errorf("generate diagram: %w", err)
	}

	cleaned := StripCodeFence(text)
	var probe any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, &InvalidOutputError{Raw: cleaned, Err: err}
	}
	return json.RawMessage(cleaned), nil
}

// FromImage extracts a diagram from an image. An empty mimeType is detected
// from the content.
func (s *DiagramService) FromImage(ctx context.Context, image []byte, mimeType string) (*Diagram, error) {
	detected := mimetype.Detect(image)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, detected.String())
	}
	if mimeType == "" {
		mimeType = detected.String()
	}

	text, err := s.gen.Generate(ctx,
		Part{Text: imageInstructions},
		Part{InlineData: &InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	)
	if err != nil {
		return nil, fmt.Errorf("read diagram image: %w", err)
	}

	cleaned := StripCodeFence(text)
	var out imageOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &InvalidOutputError{Raw: cleaned, Err: err}
	}
	return mapImageOutput(out), nil
}

func mapImageOutput(out imageOutput) *Diagram {
	ids := make(map[string]string, len(out.Nodes))
	for _, n := range out.Nodes {
		ids[n.Name] = lo.Ternary(n.ID != "", n.ID, uuid.NewString())
	}

	classes := lo.Map(out.Nodes, func(n node, _ int) Class {
		return Class{
			ID:         ids[n.Name],
			Name:       n.Name,
			Attributes: lo.Ternary(n.Attributes != nil, n.Attributes, []Attribute{}),
			Methods:    lo.Ternary(n.Methods != nil, n.Methods, []Method{}),
		}
	})

	relationships := make([]Relationship, 0, len(out.Edges))
	for _, e := range out.Edges {
		relType := relationshipType(e)
		src, tgt := e.SourceName, e.TargetName

		// A diamond at the head means the edge was read backwards.
		if e.Head.Shape == "diamond" || e.Head.Fill == "black" || e.Head.Fill == "white" {
			src, tgt = tgt, src
		}
		if e.Tail.Shape == "triangle" && relType == RelGeneralization {
			src, tgt = tgt, src
		}

		srcID, okSrc := ids[src]
		tgtID, okTgt := ids[tgt]
		if src == "" || tgt == "" || !okSrc || !okTgt {
			continue
		}

		relationships = append(relationships, Relationship{
			ID:       lo.Ternary(e.ID != "", e.ID, uuid.NewString()),
			Type:     relType,
			SourceID: srcID,
			TargetID: tgtID,
			Labels:   lo.Ternary(e.Labels != nil, e.Labels, []string{}),
		})
	}

	return &Diagram{Classes: classes, Relationships: relationships}
}

func relationshipType(e rawEdge) string {
	switch {
	case e.Tail.Diamond == "black":
		return RelComposition
	case e.Tail.Diamond == "white":
		return RelAggregation
	case e.Line.Style == "dashed":
		return RelDependency
	case e.Head.Shape == "triangle" && (e.Head.Size == "large" || e.Head.Fill == "none"):
		return RelGeneralization
	default:
		return RelAssociation
	}
}
