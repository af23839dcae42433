package models

import "testing"

// TestFieldTypeIsMedia verifies which field types are treated as media
// sources by the presentation resolver.
func TestFieldTypeIsMedia(t *testing.T) {
	tests := []struct {
		name  string
		ft    FieldType
		media bool
	}{
		{name: "image", ft: FieldTypeImage, media: true},
		{name: "images", ft: FieldTypeImages, media: true},
		{name: "photo", ft: FieldTypePhoto, media: true},
		{name: "cover", ft: FieldTypeCover, media: true},
		{name: "file", ft: FieldTypeFile, media: true},
		{name: "text", ft: FieldTypeText, media: false},
		{name: "textarea", ft: FieldTypeTextarea, media: false},
		{name: "video", ft: FieldTypeVideo, media: false},
		{name: "url", ft: FieldTypeURL, media: false},
		{name: "section_header", ft: FieldTypeSectionHeader, media: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ft.IsMedia(); got != tc.media {
				t.Errorf("FieldType(%s).IsMedia() = %v, want %v", tc.ft, got, tc.media)
			}
		})
	}
}

// TestTemplateFieldsFlattening ensures Fields preserves step order then
// in-step order.
func TestTemplateFieldsFlattening(t *testing.T) {
	tmpl := &CategoryTemplate{
		Steps: []TemplateStep{
			{Title: "Basics", Fields: []FieldDefinition{
				{FieldName: "make"}, {FieldName: "model"},
			}},
			{Title: "Media", Fields: []FieldDefinition{
				{FieldName: "gallery"},
			}},
		},
	}

	fields := tmpl.Fields()
	want := []string{"make", "model", "gallery"}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i, name := range want {
		if fields[i].FieldName != name {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i].FieldName, name)
		}
	}
}

// TestTemplateFieldsNil ensures a nil template yields no fields.
func TestTemplateFieldsNil(t *testing.T) {
	var tmpl *CategoryTemplate
	if got := tmpl.Fields(); got != nil {
		t.Errorf("nil template Fields() = %v, want nil", got)
	}
}

// TestCoverField picks the first field flagged as cover, across steps.
func TestCoverField(t *testing.T) {
	tmpl := &CategoryTemplate{
		Steps: []TemplateStep{
			{Fields: []FieldDefinition{{FieldName: "photos"}}},
			{Fields: []FieldDefinition{
				{FieldName: "main_photo", IsCoverImage: true},
				{FieldName: "extra", IsCoverImage: true},
			}},
		},
	}

	cover := tmpl.CoverField()
	if cover == nil {
		t.Fatal("expected a cover field")
	}
	if cover.FieldName != "main_photo" {
		t.Errorf("cover field = %q, want %q", cover.FieldName, "main_photo")
	}

	none := &CategoryTemplate{Steps: []TemplateStep{{Fields: []FieldDefinition{{FieldName: "a"}}}}}
	if none.CoverField() != nil {
		t.Error("expected nil cover field when none is flagged")
	}
}
