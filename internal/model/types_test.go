package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestTagList_ListOrString(t *testing.T) {
	var in PostInput
	if err := json.Unmarshal([]byte(`{"tags":" go, web ,,go, notes "}`), &in); err != nil {
		t.Fatalf("unmarshal string tags: %v", err)
	}
	if in.Tags == nil || !reflect.DeepEqual([]string(*in.Tags), []string{"go", "web", "notes"}) {
		t.Fatalf("string tags = %v", in.Tags)
	}
	in = PostInput{}
	if err := json.Unmarshal([]byte(`{"tags":["b","a","b"," "]}`), &in); err != nil {
		t.Fatalf("unmarshal list tags: %v", err)
	}
	if !reflect.DeepEqual([]string(*in.Tags), []string{"b", "a"}) {
		t.Fatalf("list tags = %v", *in.Tags)
	}
	in = PostInput{}
	if err := json.Unmarshal([]byte(`{"title":"x"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.Tags != nil {
		t.Fatalf("omitted tags should stay nil")
	}
	if err := json.Unmarshal([]byte(`{"tags":42}`), &in); err == nil {
		t.Fatalf("expect error for numeric tags")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Published "); !ok || s != StatusPublished {
		t.Fatalf("ParseStatus published = %q %v", s, ok)
	}
	if _, ok := ParseStatus("deleted"); ok {
		t.Fatalf("unknown status accepted")
	}
}

func TestEffectiveDate(t *testing.T) {
	c := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := c.Add(time.Hour)
	p := c.Add(2 * time.Hour)
	post := Post{CreatedAt: c}
	if !post.EffectiveDate().Equal(c) {
		t.Fatalf("want createdAt")
	}
	post.UpdatedAt = u
	if !post.EffectiveDate().Equal(u) {
		t.Fatalf("want updatedAt")
	}
	post.PublishedAt = &p
	if !post.EffectiveDate().Equal(p) {
		t.Fatalf("want publishedAt")
	}
}
