package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielT/a2ltool/internal/config"
	"github.com/DanielT/a2ltool/internal/update"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("addresses-only", false, "")
	cmd.Flags().Bool("strict", false, "")
	cmd.Flags().Bool("preserve", false, "")
	addSynthPolicyFlags(cmd)
	return cmd
}

func TestUpdatePolicyFromFlagsDefaultsToConfig(t *testing.T) {
	cmd := newTestCmd()
	cfg := config.Default()

	policy, err := updatePolicyFromFlags(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, update.Full, policy.What)
	assert.Equal(t, update.Default, policy.Mode)
}

func TestUpdatePolicyFromFlagsOverridesConfig(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("addresses-only", "true"))
	require.NoError(t, cmd.Flags().Set("strict", "true"))
	cfg := config.Default()

	policy, err := updatePolicyFromFlags(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, update.AddressesOnly, policy.What)
	assert.Equal(t, update.Strict, policy.Mode)
}

func TestUpdatePolicyFromFlagsPreserveWinsOverConfigStrict(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("preserve", "true"))
	cfg := config.Default()
	cfg.Mode = "strict"

	policy, err := updatePolicyFromFlags(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, update.Preserve, policy.Mode)
}

func TestSynthPolicyFromFlagsOverridesVersion(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("a2l-version", "1.7.1"))
	require.NoError(t, cmd.Flags().Set("use-structures", "true"))
	cfg := config.Default()

	policy, err := synthPolicyFromFlags(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, "1.7.1", policy.Version.String())
	assert.True(t, policy.UseStructures)
}

func TestSynthPolicyFromFlagsRejectsBadVersion(t *testing.T) {
	cmd := newTestCmd()
	require.NoError(t, cmd.Flags().Set("a2l-version", "nonsense"))
	cfg := config.Default()

	_, err := synthPolicyFromFlags(cmd, cfg)
	assert.Error(t, err)
}
