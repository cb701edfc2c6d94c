package services

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		body string
		want Command
	}{
		{"profile: Acme Bakery", Command{Kind: CmdSetProfile, Text: "Acme Bakery"}},
		{"PROFILE:Acme Bakery", Command{Kind: CmdSetProfile, Text: "Acme Bakery"}},
		{"profile:", Command{Kind: CmdSetProfile, Text: ""}},
		{"style: bold", Command{Kind: CmdSetStyle, Text: "bold"}},
		{"Style: PASTEL", Command{Kind: CmdSetStyle, Text: "pastel"}},
		{"style: neon", Command{Kind: CmdSetStyle, Text: "neon"}},
		{"edit caption: New drop!", Command{Kind: CmdEditCaption, Text: "New drop!"}},
		{"EDIT CAPTION:hi", Command{Kind: CmdEditCaption, Text: "hi"}},
		{"approve", Command{Kind: CmdApprove}},
		{"Approve Post", Command{Kind: CmdApprove}},
		{"approve story", Command{Kind: CmdApproveStory}},
		{"APPROVE  STORY", Command{Kind: CmdApproveStory}},
		{"2", Command{Kind: CmdSelectCaption, N: 2}},
		{"option 2", Command{Kind: CmdSelectCaption, N: 2}},
		{"Caption 13", Command{Kind: CmdSelectCaption, N: 13}},
		{" 4 ", Command{Kind: CmdSelectCaption, N: 4}},
		{"hello there", Command{Kind: CmdUnknown}},
		{"I have 2 dogs", Command{Kind: CmdUnknown}},
		{"approve everything", Command{Kind: CmdUnknown}},
		{"", Command{Kind: CmdUnknown}},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.body)
		if got.Kind != tt.want.Kind {
			t.Errorf("ParseCommand(%q).Kind = %v, want %v", tt.body, got.Kind, tt.want.Kind)
			continue
		}
		if got.Text != tt.want.Text {
			t.Errorf("ParseCommand(%q).Text = %q, want %q", tt.body, got.Text, tt.want.Text)
		}
		if got.N != tt.want.N {
			t.Errorf("ParseCommand(%q).N = %d, want %d", tt.body, got.N, tt.want.N)
		}
	}
}
