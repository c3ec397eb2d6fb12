package useragent

import (
	"sync"
	"testing"
)

func TestNextRoundRobin(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})

	got := []string{p.Next(), p.Next(), p.Next(), p.Next()}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Next() call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRandomStaysInPool(t *testing.T) {
	agents := []string{"x", "y"}
	p := NewPool(agents)

	for i := 0; i < 50; i++ {
		ua := p.Random()
		if ua != "x" && ua != "y" {
			t.Fatalf("Random() returned %q, not in pool", ua)
		}
	}
}

func TestEmptyFallsBackToDefault(t *testing.T) {
	p := NewPool(nil)
	if len(p.All()) != len(Default) {
		t.Errorf("expected default pool of %d agents, got %d", len(Default), len(p.All()))
	}
	if p.Random() == "" {
		t.Error("Random() returned empty string from default pool")
	}
}

func TestConcurrentAccess(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if p.Next() == "" || p.Random() == "" {
					t.Error("unexpected empty agent")
				}
			}
		}()
	}
	wg.Wait()
}
