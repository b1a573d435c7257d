// Package forms decodes the loosely typed registration form into strongly typed
// values. All coercion from form strings to numbers, lists and maps happens here,
// and validation collects every field error in one pass so the client can highlight
// all invalid fields in a single round trip.
package forms

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"backoffice-service/internal/models"
)

// ValidationErrors maps a form field name to a human-readable message.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e))
}

// ProductForm is the decoded product registration form.
type ProductForm struct {
	Name           string
	CategoryID     int64
	Price          float64
	Quantity       int
	Color          models.StringList
	Description    *string
	WholesaleID    int64
	SaleStatus     models.SaleStatus
	Sizes          models.SizeMap
	MainImageIndex int
	Images         []*multipart.FileHeader
}

// ParseProductForm decodes a multipart form into a ProductForm. Malformed numeric
// fields decode to zero and are caught by Validate; a malformed sizes payload is
// logged and treated as absent, never fatal.
func ParseProductForm(form *multipart.Form, logger *logrus.Entry) *ProductForm {
	f := &ProductForm{
		Name:           strings.TrimSpace(formValue(form, "name")),
		CategoryID:     parseInt64(formValue(form, "category_id")),
		Price:          parseFloat(formValue(form, "price")),
		Quantity:       int(parseInt64(formValue(form, "quantity"))),
		Color:          ParseColorList(formValue(form, "color")),
		WholesaleID:    parseInt64(formValue(form, "wholesale_id")),
		SaleStatus:     models.SaleStatus(strings.TrimSpace(formValue(form, "sale_status"))),
		Sizes:          ParseSizeMap(formValue(form, "sizes"), logger),
		MainImageIndex: int(parseInt64(formValue(form, "main_image_index"))),
		Images:         form.File["images"],
	}

	if desc := strings.TrimSpace(formValue(form, "description")); desc != "" {
		f.Description = &desc
	}
	if f.SaleStatus == "" {
		f.SaleStatus = models.SaleStatusSelling
	}

	return f
}

// ValidImages returns the submitted files that actually carry content, keyed by
// their position in the submitted list. Positions are not renumbered past skipped
// empty slots, so the derived filenames stay aligned with the main image index.
func (f *ProductForm) ValidImages() map[int]*multipart.FileHeader {
	valid := make(map[int]*multipart.FileHeader)
	for i, file := range f.Images {
		if file != nil && file.Size > 0 {
			valid[i] = file
		}
	}
	return valid
}

// Validate checks every required field and returns all failures together.
// A nil result means the form is valid.
func (f *ProductForm) Validate() ValidationErrors {
	errs := ValidationErrors{}

	if f.Name == "" {
		errs["name"] = "Product name is required."
	}
	if f.CategoryID <= 0 {
		errs["category_id"] = "Please select a category."
	}
	if f.Price <= 0 {
		errs["price"] = "Price must be greater than zero."
	}
	if f.Quantity <= 0 {
		errs["quantity"] = "Quantity must be greater than zero."
	}
	if f.WholesaleID <= 0 {
		errs["wholesale_id"] = "Please select a wholesale lot."
	}
	if !f.SaleStatus.Valid() {
		errs["sale_status"] = "Unknown sale status."
	}
	if len(f.ValidImages()) == 0 {
		errs["images"] = "At least one product image is required."
	}
	if len(f.Sizes) > 0 {
		for label, detail := range f.Sizes {
			if strings.TrimSpace(label) == "" || strings.TrimSpace(detail) == "" {
				errs["sizes"] = "Every size entry needs both a label and a value."
				break
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseColorList normalizes a raw color field into an ordered list. The input may
// be a JSON array, a JSON-encoded string, or a plain string separated by commas,
// fullwidth commas or newlines. The result is nil when nothing usable remains.
func ParseColorList(raw string) models.StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var colors []string
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		switch v := parsed.(type) {
		case []interface{}:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					s = fmt.Sprint(item)
				}
				colors = appendColor(colors, s)
			}
		case string:
			colors = splitColors(v, ",\n")
		}
	} else {
		// Not JSON: plain separated string, fullwidth comma included.
		colors = splitColors(raw, ",，\n")
	}

	if len(colors) == 0 {
		return nil
	}
	return colors
}

func splitColors(raw, separators string) []string {
	var colors []string
	pieces := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	for _, piece := range pieces {
		colors = appendColor(colors, piece)
	}
	return colors
}

func appendColor(colors []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		colors = append(colors, s)
	}
	return colors
}

// ParseSizeMap decodes the JSON-encoded size map. Parse failure is non-fatal:
// it is logged and the sizes are treated as absent.
func ParseSizeMap(raw string, logger *logrus.Entry) models.SizeMap {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var sizes models.SizeMap
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Failed to parse sizes field, treating as empty")
		}
		return nil
	}
	if len(sizes) == 0 {
		return nil
	}
	return sizes
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}
