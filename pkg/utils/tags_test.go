package utils

import (
	"fmt"
	"testing"
)

func TestTagDecompose(t *testing.T) {

	expectedOrg := "acme"
	expectedImg := "video-api"
	expectedVer := "1.0.0"

	ok, org, image, version := TagDecompose(fmt.Sprintf("%s/%s:%s", expectedOrg, expectedImg, expectedVer))
	if !ok {
		t.Fatal("expected tag to decompose")
	}
	if org != expectedOrg {
		t.Fatalf("expected different than parsed: %q vs %q", expectedOrg, org)
	}
	if image != expectedImg {
		t.Fatalf("expected different than parsed: %q vs %q", expectedImg, image)
	}
	if version != expectedVer {
		t.Fatalf("expected different than parsed: %q vs %q", expectedVer, version)
	}
}
