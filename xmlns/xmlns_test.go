package xmlns

import "testing"

func TestRepositoryInterning(t *testing.T) {
	repo := NewRepository()
	ctx := repo.CreateContext()

	id1 := ctx.Push("a", "urn:one")
	id2 := ctx.Push("b", "urn:two")
	id1Again := ctx.Push("c", "urn:one")

	if id1 != id1Again {
		t.Fatalf("same URI should intern to the same ID: %v != %v", id1, id1Again)
	}
	if id1 == id2 {
		t.Fatal("different URIs should intern to different IDs")
	}
	if repo.URI(id1) != "urn:one" {
		t.Fatalf("URI(id1) = %q, want %q", repo.URI(id1), "urn:one")
	}
}

func TestRepositoryShortNames(t *testing.T) {
	repo := NewRepository()
	ctx := repo.CreateContext()
	id := ctx.Push("a", "urn:one")

	if got := repo.GetShortName(UnknownID); got != "" {
		t.Fatalf("GetShortName(UnknownID) = %q, want \"\"", got)
	}
	if got := repo.GetShortName(id); got == "" {
		t.Fatal("GetShortName(id) should not be empty for a known id")
	}
}

func TestContextPushPopShadowing(t *testing.T) {
	repo := NewRepository()
	ctx := repo.CreateContext()

	outer := ctx.Push("x", "urn:outer")
	if ctx.Get("x") != outer {
		t.Fatal("Get should return the just-pushed binding")
	}

	inner := ctx.Push("x", "urn:inner")
	if ctx.Get("x") != inner {
		t.Fatal("Get should return the shadowing binding")
	}

	ctx.Pop("x")
	if ctx.Get("x") != outer {
		t.Fatal("Pop should restore the shadowed binding")
	}

	ctx.Pop("x")
	if ctx.Get("x") != UnknownID {
		t.Fatal("Get should return UnknownID once every binding for the alias is popped")
	}
}

func TestContextScopes(t *testing.T) {
	repo := NewRepository()
	ctx := repo.CreateContext()

	ctx.Push("default", "urn:root")
	ctx.PushScope()
	ctx.Push("default", "urn:child")
	ctx.Push("other", "urn:other")

	if ctx.Get("other") == UnknownID {
		t.Fatal("Get(\"other\") should be bound inside the scope")
	}

	ctx.PopScope()

	if ctx.Get("other") != UnknownID {
		t.Fatal("Get(\"other\") should be unbound once its scope is popped")
	}
	if repo.URI(ctx.Get("default")) != "urn:root" {
		t.Fatalf("Get(\"default\") should fall back to the root binding, got URI %q", repo.URI(ctx.Get("default")))
	}
}

func TestContextGetAlias(t *testing.T) {
	repo := NewRepository()
	ctx := repo.CreateContext()
	id := ctx.Push("x", "urn:one")

	if got := ctx.GetAlias(id); got != "x" {
		t.Fatalf("GetAlias(id) = %q, want %q", got, "x")
	}
	if got := ctx.GetAlias(UnknownID); got != "" {
		t.Fatalf("GetAlias(UnknownID) = %q, want \"\"", got)
	}
}
