package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/synth"
)

func TestEntityKindLabel(t *testing.T) {
	tests := []struct {
		name   string
		result synth.Result
		want   string
	}{
		{"measurement", synth.Result{Kind: synth.EntityMeasurement}, "MEASUREMENT"},
		{"instance", synth.Result{Kind: synth.EntityInstance}, "INSTANCE"},
		{"characteristic value", synth.Result{Kind: synth.EntityCharacteristic, CharacteristicK: a2lmodel.KindValue}, "CHARACTERISTIC VALUE"},
		{"characteristic map", synth.Result{Kind: synth.EntityCharacteristic, CharacteristicK: a2lmodel.KindMap}, "CHARACTERISTIC MAP"},
		{"blob", synth.Result{Kind: synth.EntityBlob}, "BLOB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entityKindLabel(tt.result))
		})
	}
}
