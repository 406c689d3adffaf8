package pool

// Rights is the immutable capability set fixed at pool construction. Each
// flag gates one family of mutating entry points; representing them as a
// plain record keeps the whole permission surface auditable as one value.
type Rights struct {
	PauseSwapping bool `json:"pause_swapping"`
	ChangeSwapFee bool `json:"change_swap_fee"`
	ChangeWeights bool `json:"change_weights"`
	// AddRemoveTokens is reserved: the pool is fixed at two assets and has
	// no bind or unbind entry point, so nothing checks this flag yet.
	AddRemoveTokens bool `json:"add_remove_tokens"`
	WhitelistLPs    bool `json:"whitelist_lps"`
	ChangeCap       bool `json:"change_cap"`
}

// AllRights returns a capability set with every flag enabled.
func AllRights() Rights {
	return Rights{
		PauseSwapping:   true,
		ChangeSwapFee:   true,
		ChangeWeights:   true,
		AddRemoveTokens: true,
		WhitelistLPs:    true,
		ChangeCap:       true,
	}
}
