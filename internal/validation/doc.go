// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package validation provides struct validation using go-playground/validator v10.
//
// A singleton validator is shared by all handlers. Field names in error
// messages come from the query or json tag, so clients see the parameter
// they sent:
//
//	type ContainerLookupRequest struct {
//	    Number string `query:"number" validate:"required,container_number"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Custom Validators
//
//   - container_number: letters, digits, spaces, '-' and '/', at most
//     MaxContainerNumberLength characters
package validation
