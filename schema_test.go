package s3up

import "testing"

func TestByteSize(t *testing.T) {
	cases := map[string]int64{
		"5MB":  5 << 20,
		"1GB":  1 << 30,
		"10KB": 10 << 10,
		"100B": 100,
		"42":   42,
	}
	for input, want := range cases {
		got, err := ByteSize(input)
		if err != nil {
			t.Errorf("ByteSize(%q) error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ByteSize(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestByteSizeInvalid(t *testing.T) {
	if _, err := ByteSize(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ByteSize("not-a-size"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestFileSchemaNonMutatingClone(t *testing.T) {
	base := File().Max("1MB")
	derived := base.Types("image/png")

	if len(base.allowedTypes) != 0 {
		t.Error("modifying derived schema should not affect base")
	}
	if derived.maxSize != base.maxSize {
		t.Error("derived schema should inherit the base's maxSize")
	}
}

func TestFileSchemaMaxPanicsOnUnparseable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Max to panic on an unparseable size literal")
		}
	}()
	File().Max("not-a-size")
}

func TestImageDefaultsToImageWildcard(t *testing.T) {
	img := Image()
	if len(img.allowedTypes) != 1 || img.allowedTypes[0] != "image/*" {
		t.Errorf("Image() allowedTypes = %v", img.allowedTypes)
	}
}

func TestFileSchemaValidateSize(t *testing.T) {
	s := File().Max("10B")
	if err := s.validateFile(FileDescriptor{Name: "a", Size: 100}, Defaults{}); err == nil || err.Code != "FILE_TOO_LARGE" {
		t.Fatalf("expected FILE_TOO_LARGE, got %v", err)
	}
	if err := s.validateFile(FileDescriptor{Name: "a", Size: 5}, Defaults{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFileSchemaValidateType(t *testing.T) {
	s := Image()
	if err := s.validateFile(FileDescriptor{Name: "a", Type: "application/pdf"}, Defaults{}); err == nil || err.Code != "INVALID_TYPE" {
		t.Fatalf("expected INVALID_TYPE, got %v", err)
	}
	if err := s.validateFile(FileDescriptor{Name: "a", Type: "image/png"}, Defaults{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFormatsRestrictsAllowedTypes(t *testing.T) {
	s := Image().Formats("jpeg", "png")
	if err := s.validateFile(FileDescriptor{Name: "a", Type: "image/gif"}, Defaults{}); err == nil {
		t.Error("expected gif to be rejected when Formats restricts to jpeg/png")
	}
	if err := s.validateFile(FileDescriptor{Name: "a", Type: "image/png"}, Defaults{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMaxFilesPromotesToArraySchema(t *testing.T) {
	arr := File().Max("1MB").MaxFiles(3)
	if arr.maxCount != 3 {
		t.Errorf("maxCount = %d, want 3", arr.maxCount)
	}
	if err := arr.validateFile(FileDescriptor{Name: "a", Size: 2 << 20}, Defaults{}); err == nil {
		t.Error("expected element validation (size limit) to apply through the array")
	}
}

func TestObjectSchemaRoutesByField(t *testing.T) {
	obj := Object(map[string]Schema{
		"avatar": Image().Max("1MB"),
		"resume": File().Types("application/pdf"),
	})

	if err := obj.validateFile(FileDescriptor{Name: "a.png", Type: "image/png", Field: "avatar"}, Defaults{}); err != nil {
		t.Errorf("unexpected error for valid avatar: %v", err)
	}
	if err := obj.validateFile(FileDescriptor{Name: "a.png", Type: "image/png", Field: ""}, Defaults{}); err == nil || err.Code != "MISSING_FIELD" {
		t.Fatalf("expected MISSING_FIELD for empty field, got %v", err)
	}
	if err := obj.validateFile(FileDescriptor{Name: "a.png", Field: "unknown"}, Defaults{}); err == nil || err.Code != "MISSING_FIELD" {
		t.Fatalf("expected MISSING_FIELD for unknown field, got %v", err)
	}
}

func TestFileSchemaFallsBackToDefaults(t *testing.T) {
	s := File() // no node-level maxSize/allowedTypes set
	defaults := Defaults{MaxFileSize: 10, AllowedFileTypes: []string{"image/*"}}

	if err := s.validateFile(FileDescriptor{Name: "a", Size: 100, Type: "image/png"}, defaults); err == nil || err.Code != "FILE_TOO_LARGE" {
		t.Fatalf("expected defaults.MaxFileSize to apply, got %v", err)
	}
	if err := s.validateFile(FileDescriptor{Name: "a", Size: 5, Type: "application/pdf"}, defaults); err == nil || err.Code != "INVALID_TYPE" {
		t.Fatalf("expected defaults.AllowedFileTypes to apply, got %v", err)
	}
	if err := s.validateFile(FileDescriptor{Name: "a", Size: 5, Type: "image/png"}, defaults); err != nil {
		t.Errorf("unexpected error within both defaults: %v", err)
	}

	// A node-level constraint always wins over the config-wide default.
	withOwnLimit := File().Max("1KB")
	if err := withOwnLimit.validateFile(FileDescriptor{Name: "a", Size: 5000}, Defaults{MaxFileSize: 1 << 20}); err == nil || err.Code != "FILE_TOO_LARGE" {
		t.Fatalf("expected the node's own MaxFileSize to take precedence over a larger default, got %v", err)
	}
}

func TestObjectSchemaCloneDoesNotShareFieldMap(t *testing.T) {
	base := Object(map[string]Schema{"a": File()})
	derived := base.Middleware(func(ctx *RequestContext) (map[string]string, error) { return nil, nil })
	if len(derived.fields) != len(base.fields) {
		t.Error("clone should copy the fields map")
	}
	derived.fields["b"] = File()
	if _, ok := base.fields["b"]; ok {
		t.Error("adding a field to the derived schema leaked into the base's fields map")
	}
}

func TestDescriptorRedactsToShapeOnly(t *testing.T) {
	s := Image().Max("5MB").Formats("png")
	d := s.descriptor()
	if d.Kind != "image" || d.MaxSize != 5<<20 {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestArraySchemaDescriptorNestsElement(t *testing.T) {
	arr := File().Max("1MB").MaxFiles(4)
	d := arr.descriptor()
	if d.Kind != "array" || d.MaxCount != 4 {
		t.Errorf("descriptor = %+v", d)
	}
	if _, ok := d.Fields["element"]; !ok {
		t.Error("expected array descriptor to nest an \"element\" field")
	}
}
