package render

import "testing"

func TestNewCameraAspectRatio(t *testing.T) {
	c := NewCamera(1280, 720)
	want := float32(1280) / float32(720)
	if c.AspectRatio != want {
		t.Fatalf("got aspect ratio %v, want %v", c.AspectRatio, want)
	}
}

func TestCameraResizeUpdatesAspectRatio(t *testing.T) {
	c := NewCamera(800, 600)
	c.Resize(1920, 1080)
	want := float32(1920) / float32(1080)
	if c.AspectRatio != want {
		t.Fatalf("got aspect ratio %v after resize, want %v", c.AspectRatio, want)
	}
}

func TestProjectionMatrixIsNotDegenerate(t *testing.T) {
	c := NewCamera(1280, 720)
	proj := c.ProjectionMatrix()
	if proj[0] == 0 || proj[5] == 0 {
		t.Fatal("expected a non-degenerate perspective projection matrix")
	}
}
