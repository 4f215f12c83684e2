package registry

import (
	"sort"
	"strings"
)

// Task is the API surface a model serves.
type Task string

const (
	TaskEmbedding   Task = "embedding"
	TaskImage       Task = "image"
	TaskTranslation Task = "translation"
)

// Family selects the provider adapter for a model.
type Family string

const (
	FamilyTitanText       Family = "titan-text"
	FamilyTitanMultimodal Family = "titan-multimodal"
	FamilyCohere          Family = "cohere"
	FamilyMarengo         Family = "marengo"
	FamilyNova            Family = "nova"
	FamilyNovaCanvas      Family = "nova-canvas"
	FamilyTitanImage      Family = "titan-image"
	FamilyStability       Family = "stability"
	FamilyTranscribe      Family = "transcribe"
)

// Modality is an input kind a model accepts.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityAudio Modality = "audio"
)

// DimensionSupport classifies how a model handles requested output
// dimensionality.
type DimensionSupport int

const (
	// DimensionsNone rejects any dimensions request.
	DimensionsNone DimensionSupport = iota
	// DimensionsFixedSet accepts only values from AllowedDimensions.
	DimensionsFixedSet
	// DimensionsArbitrary forwards any positive value to the provider.
	DimensionsArbitrary
)

// Capability describes what one model supports. The table is immutable after
// process start; adapters consult it instead of sniffing model id strings.
type Capability struct {
	ModelID               string
	Task                  Task
	Family                Family
	Modalities            []Modality
	Dimensions            DimensionSupport
	AllowedDimensions     []int
	SupportsTruncate      bool
	SupportsQuality       bool
	SupportsStyle         bool
	AutoCombinesTextImage bool
	CohereContentList     bool // v4-style mixed "inputs" content list
	OwnedBy               string
}

// SupportsModality reports whether the model accepts the given input kind.
func (c *Capability) SupportsModality(m Modality) bool {
	for _, mod := range c.Modalities {
		if mod == m {
			return true
		}
	}
	return false
}

// AllowsDimension reports whether a fixed-set model accepts the value.
func (c *Capability) AllowsDimension(d int) bool {
	for _, v := range c.AllowedDimensions {
		if v == d {
			return true
		}
	}
	return false
}

var catalogue = []Capability{
	{
		ModelID:    "amazon.titan-embed-text-v1",
		Task:       TaskEmbedding,
		Family:     FamilyTitanText,
		Modalities: []Modality{ModalityText},
		Dimensions: DimensionsNone,
		OwnedBy:    "amazon",
	},
	{
		ModelID:           "amazon.titan-embed-text-v2:0",
		Task:              TaskEmbedding,
		Family:            FamilyTitanText,
		Modalities:        []Modality{ModalityText},
		Dimensions:        DimensionsFixedSet,
		AllowedDimensions: []int{256, 512, 1024},
		OwnedBy:           "amazon",
	},
	{
		ModelID:               "amazon.titan-embed-image-v1",
		Task:                  TaskEmbedding,
		Family:                FamilyTitanMultimodal,
		Modalities:            []Modality{ModalityText, ModalityImage},
		Dimensions:            DimensionsFixedSet,
		AllowedDimensions:     []int{256, 384, 1024},
		AutoCombinesTextImage: true,
		OwnedBy:               "amazon",
	},
	{
		ModelID:          "cohere.embed-english-v3",
		Task:             TaskEmbedding,
		Family:           FamilyCohere,
		Modalities:       []Modality{ModalityText, ModalityImage},
		Dimensions:       DimensionsNone,
		SupportsTruncate: true,
		OwnedBy:          "cohere",
	},
	{
		ModelID:          "cohere.embed-multilingual-v3",
		Task:             TaskEmbedding,
		Family:           FamilyCohere,
		Modalities:       []Modality{ModalityText, ModalityImage},
		Dimensions:       DimensionsNone,
		SupportsTruncate: true,
		OwnedBy:          "cohere",
	},
	{
		ModelID:           "cohere.embed-v4",
		Task:              TaskEmbedding,
		Family:            FamilyCohere,
		Modalities:        []Modality{ModalityText, ModalityImage},
		Dimensions:        DimensionsArbitrary,
		SupportsTruncate:  true,
		CohereContentList: true,
		OwnedBy:           "cohere",
	},
	{
		ModelID:          "twelvelabs.marengo-embed-2-7-v1:0",
		Task:             TaskEmbedding,
		Family:           FamilyMarengo,
		Modalities:       []Modality{ModalityText, ModalityImage, ModalityVideo, ModalityAudio},
		Dimensions:       DimensionsNone,
		SupportsTruncate: true,
		OwnedBy:          "twelvelabs",
	},
	{
		ModelID:           "amazon.nova-2-multimodal-embeddings-v1:0",
		Task:              TaskEmbedding,
		Family:            FamilyNova,
		Modalities:        []Modality{ModalityText, ModalityImage, ModalityVideo, ModalityAudio},
		Dimensions:        DimensionsFixedSet,
		AllowedDimensions: []int{256, 384, 1024, 3072},
		OwnedBy:           "amazon",
	},
	{
		ModelID:         "amazon.nova-canvas-v1:0",
		Task:            TaskImage,
		Family:          FamilyNovaCanvas,
		Modalities:      []Modality{ModalityText},
		SupportsQuality: true,
		SupportsStyle:   true,
		OwnedBy:         "amazon",
	},
	{
		ModelID:         "amazon.titan-image-generator-v1",
		Task:            TaskImage,
		Family:          FamilyTitanImage,
		Modalities:      []Modality{ModalityText},
		SupportsQuality: true,
		OwnedBy:         "amazon",
	},
	{
		ModelID:         "amazon.titan-image-generator-v2:0",
		Task:            TaskImage,
		Family:          FamilyTitanImage,
		Modalities:      []Modality{ModalityText},
		SupportsQuality: true,
		OwnedBy:         "amazon",
	},
	{
		ModelID:       "stability.stable-image-core-v1:1",
		Task:          TaskImage,
		Family:        FamilyStability,
		Modalities:    []Modality{ModalityText},
		SupportsStyle: true,
		OwnedBy:       "stability",
	},
	{
		ModelID:       "stability.sd3-5-large-v1:0",
		Task:          TaskImage,
		Family:        FamilyStability,
		Modalities:    []Modality{ModalityText},
		SupportsStyle: true,
		OwnedBy:       "stability",
	},
	{
		ModelID:       "stability.stable-image-ultra-v1:1",
		Task:          TaskImage,
		Family:        FamilyStability,
		Modalities:    []Modality{ModalityText},
		SupportsStyle: true,
		OwnedBy:       "stability",
	},
	{
		ModelID:    "amazon.transcribe",
		Task:       TaskTranslation,
		Family:     FamilyTranscribe,
		Modalities: []Modality{ModalityAudio},
		OwnedBy:    "amazon",
	},
}

var byID = func() map[string]*Capability {
	m := make(map[string]*Capability, len(catalogue))
	for i := range catalogue {
		m[catalogue[i].ModelID] = &catalogue[i]
	}
	return m
}()

// Cross-region inference profile prefixes accepted in front of a model id.
var regionPrefixes = []string{"us.", "eu.", "apac.", "jp.", "au."}

// Lookup resolves a model id to its capability entry. Region-prefixed ids
// (e.g. us.amazon.nova-canvas-v1:0) resolve to the bare entry; the caller
// keeps the prefixed id for the provider call.
func Lookup(modelID string) (*Capability, bool) {
	if c, ok := byID[modelID]; ok {
		return c, true
	}
	for _, prefix := range regionPrefixes {
		if strings.HasPrefix(modelID, prefix) {
			if c, ok := byID[modelID[len(prefix):]]; ok {
				return c, true
			}
		}
	}
	return nil, false
}

// List returns the catalogue sorted by model id.
func List() []Capability {
	out := make([]Capability, len(catalogue))
	copy(out, catalogue)
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}
