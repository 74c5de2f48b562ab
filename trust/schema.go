/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package trust

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const directorySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["participating_issuers"],
  "properties": {
    "participating_issuers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["iss", "name"],
        "properties": {
          "iss": {"type": "string", "minLength": 1},
          "canonical_iss": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "website": {"type": "string"}
        }
      }
    }
  }
}`

var directorySchemaLoader = gojsonschema.NewStringLoader(directorySchema)

func validateDirectory(data []byte) error {
	result, err := gojsonschema.Validate(directorySchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation of issuer directory: %w", err)
	}

	if !result.Valid() {
		return errors.New(describeSchemaValidationError(result, "issuer directory"))
	}

	return nil
}

func describeSchemaValidationError(result *gojsonschema.Result, what string) string {
	var b strings.Builder

	b.WriteString(what + " is not valid:\n")

	for _, desc := range result.Errors() {
		fmt.Fprintf(&b, "- %s\n", desc)
	}

	return b.String()
}
