package services

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandKind tags a classified inbound message body.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdSetProfile
	CmdSetStyle
	CmdSelectCaption
	CmdApprove
	CmdApproveStory
	CmdEditCaption
)

// Command is the tagged result of classifying a message body. Exactly
// one dispatcher branch consumes each kind.
type Command struct {
	Kind CommandKind
	Text string // trimmed argument for profile/style/edit commands
	N    int    // 1-based selection for CmdSelectCaption
}

var (
	profileRe = regexp.MustCompile(`(?i)^profile\s*:\s*(.*)$`)
	styleRe   = regexp.MustCompile(`(?i)^style\s*:\s*(.*)$`)
	editRe    = regexp.MustCompile(`(?i)^edit\s+caption\s*:\s*(.*)$`)
	approveRe = regexp.MustCompile(`(?i)^approve(?:\s+post)?$`)
	storyRe   = regexp.MustCompile(`(?i)^approve\s+story$`)
	numberRe  = regexp.MustCompile(`(?i)^(?:(?:option|caption)\s+)?(\d+)$`)
)

// ParseCommand classifies a message body into a Command. Matching is
// case-insensitive on the trimmed body; bodies that fit no pattern
// come back as CmdUnknown.
func ParseCommand(body string) Command {
	body = strings.TrimSpace(body)

	if m := profileRe.FindStringSubmatch(body); m != nil {
		return Command{Kind: CmdSetProfile, Text: strings.TrimSpace(m[1])}
	}
	if m := numberRe.FindStringSubmatch(body); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return Command{Kind: CmdSelectCaption, N: n}
		}
	}
	if storyRe.MatchString(body) {
		return Command{Kind: CmdApproveStory}
	}
	if approveRe.MatchString(body) {
		return Command{Kind: CmdApprove}
	}
	if m := editRe.FindStringSubmatch(body); m != nil {
		return Command{Kind: CmdEditCaption, Text: strings.TrimSpace(m[1])}
	}
	if m := styleRe.FindStringSubmatch(body); m != nil {
		return Command{Kind: CmdSetStyle, Text: strings.ToLower(strings.TrimSpace(m[1]))}
	}

	return Command{Kind: CmdUnknown}
}
