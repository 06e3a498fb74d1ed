/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds sample records used by tests and the CLI.
package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/entityview/registry"
)

// Doc is the abstraction shared by TextDoc and ContentDoc.
type Doc interface {
	GetNumber() string
	GetDate() strfmt.Date
}

type TextDoc struct {

	// Unique identifier of the document.
	// Required: true
	ID uuid.UUID `json:"id"`

	// Document number.
	// Required: true
	Number string `json:"number"`

	// Issue date.
	// Format: date
	Date strfmt.Date `json:"date"`

	// Body text.
	Text string `json:"text,omitempty"`
}

func (d *TextDoc) GetNumber() string    { return d.Number }
func (d *TextDoc) GetDate() strfmt.Date { return d.Date }

type ContentDoc struct {

	// Unique identifier of the document.
	// Required: true
	ID uuid.UUID `json:"id"`

	// Document number.
	// Required: true
	Number string `json:"number"`

	// Issue date.
	// Format: date
	Date strfmt.Date `json:"date"`

	// Content type of the attached payload, e.g. application/pdf.
	MediaType string `json:"mediaType,omitempty"`
}

func (d *ContentDoc) GetNumber() string    { return d.Number }
func (d *ContentDoc) GetDate() strfmt.Date { return d.Date }

func init() {
	registry.RegisterType[TextDoc]("TextDoc")
	registry.RegisterIndexMap[TextDoc](map[string]string{
		"PK":     "TEXTDOC#{ID}",
		"SK":     "TEXTDOC#{ID}",
		"GSI1PK": "NUMBER#{Number}",
		"GSI1SK": "TEXTDOC#{ID}",
	})

	registry.RegisterType[ContentDoc]("ContentDoc")
	registry.RegisterIndexMap[ContentDoc](map[string]string{
		"PK":     "CONTENTDOC#{ID}",
		"SK":     "CONTENTDOC#{ID}",
		"GSI1PK": "NUMBER#{Number}",
		"GSI1SK": "CONTENTDOC#{ID}",
	})
}
