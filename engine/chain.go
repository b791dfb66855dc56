/*
chain.go - Approver chain resolution and ordering

PURPOSE:
  Builds the ordered list of approvers for a member and keeps the chain
  ordered when it comes back as unordered rows. The chain is stored as rows
  with a nullable predecessor pointer (a singly linked list); here it is an
  explicit graph-by-id with a pure topological sort, so the policy logic
  never depends on implicit store ordering.

SOURCES, IN PRIORITY ORDER:
  (a) directory-manager hierarchy, up to a configured depth, filtered to
      usable managers (has email, same workspace, not archived)
  (b) explicit per-member approver list
  (c) department-manager defaults
  If the directory yields zero usable managers the resolver falls back to
  (c) and marks the member as using department defaults. If nothing can be
  resolved at all, request creation fails with a no-approver error.

CYCLE DEFENSE:
  Upstream data is not guaranteed acyclic. Traversal stops and returns the
  partial chain when the next candidate is already in the output. This is a
  data-integrity safety net, not an expected path.
*/
package engine

// =============================================================================
// CHAIN LINKS
// =============================================================================

// ApproverLink is one {approver, predecessor} pair of the chain.
type ApproverLink struct {
	ApproverID    MemberID
	PredecessorID *MemberID
}

// ChainSource records where the resolved chain came from.
type ChainSource string

const (
	SourceDirectory  ChainSource = "directory"
	SourceExplicit   ChainSource = "explicit"
	SourceDepartment ChainSource = "department"
)

// ResolvedChain is the output of chain resolution.
type ResolvedChain struct {
	Links  []ApproverLink
	Source ChainSource

	// UsesDeptDefaults is set when directory resolution found no usable
	// manager and the member fell back to department defaults.
	UsesDeptDefaults bool
}

// DirectoryManager is one entry of the already-fetched manager hierarchy,
// ordered nearest-first. The engine does not talk to any directory service.
type DirectoryManager struct {
	MemberID    MemberID
	WorkspaceID WorkspaceID
	Email       string
	Archived    bool
}

// Usable reports whether the manager can serve as an approver in the
// given workspace.
func (m DirectoryManager) Usable(ws WorkspaceID) bool {
	return m.Email != "" && m.WorkspaceID == ws && !m.Archived
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ChainInput bundles the pre-fetched data chain resolution consumes.
type ChainInput struct {
	DirectoryManagers []DirectoryManager // ordered, nearest manager first
	MaxDirectoryDepth int
	DeptApprovers     []MemberID // department-manager defaults, in order
}

// ResolveChain builds the approver chain for a member. Linear and parallel
// policies share the same construction; parallel policies simply ignore
// the ordering when decisions are applied.
func ResolveChain(member Member, in ChainInput) (ResolvedChain, error) {
	if links := directoryChain(member, in); len(links) > 0 {
		return ResolvedChain{Links: links, Source: SourceDirectory}, nil
	}

	if len(in.DirectoryManagers) > 0 {
		// Directory lookup was attempted but produced nothing usable:
		// fall through to department defaults, flagging the member.
		if links := linkUp(in.DeptApprovers); len(links) > 0 {
			return ResolvedChain{Links: links, Source: SourceDepartment, UsesDeptDefaults: true}, nil
		}
		return ResolvedChain{}, precondition(CodeNoApprover, "no usable manager in directory and no department default for member %s", member.ID)
	}

	if links := linkUp(member.ApproverIDs); len(links) > 0 {
		return ResolvedChain{Links: links, Source: SourceExplicit}, nil
	}
	if links := linkUp(in.DeptApprovers); len(links) > 0 {
		return ResolvedChain{Links: links, Source: SourceDepartment}, nil
	}
	return ResolvedChain{}, precondition(CodeNoApprover, "no approver configured for member %s", member.ID)
}

func directoryChain(member Member, in ChainInput) []ApproverLink {
	depth := in.MaxDirectoryDepth
	if depth <= 0 {
		depth = 1
	}
	var ids []MemberID
	for _, mgr := range in.DirectoryManagers {
		if len(ids) == depth {
			break
		}
		if !mgr.Usable(member.WorkspaceID) {
			continue
		}
		ids = append(ids, mgr.MemberID)
	}
	return linkUp(ids)
}

// linkUp turns an ordered id list into a strict chain where each entry's
// predecessor is the previous one. Duplicate ids are dropped.
func linkUp(ids []MemberID) []ApproverLink {
	var links []ApproverLink
	seen := make(map[MemberID]bool, len(ids))
	var prev *MemberID
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, ApproverLink{ApproverID: id, PredecessorID: prev})
		p := id
		prev = &p
	}
	return links
}

// =============================================================================
// TOPOLOGICAL SORT
// =============================================================================

// SortApprovers orders chain rows by following predecessor pointers from
// the head (the unique entry with a nil predecessor). If the next
// candidate is already present in the output (a cycle), the partial chain
// is returned rather than looping. Rows unreachable from the head are
// dropped; callers that care log the anomaly.
func SortApprovers(rows []RequestApprover) []RequestApprover {
	var head *RequestApprover
	byPredecessor := make(map[MemberID][]RequestApprover, len(rows))
	for i := range rows {
		if rows[i].PredecessorID == nil {
			if head == nil {
				head = &rows[i]
			}
			continue
		}
		pred := *rows[i].PredecessorID
		byPredecessor[pred] = append(byPredecessor[pred], rows[i])
	}
	if head == nil {
		return nil
	}

	ordered := []RequestApprover{*head}
	accepted := map[MemberID]bool{head.ApproverID: true}
	last := head.ApproverID
	for {
		successors := byPredecessor[last]
		if len(successors) == 0 {
			break
		}
		next := successors[0]
		if accepted[next.ApproverID] {
			// Cycle: stop with the partial chain.
			break
		}
		ordered = append(ordered, next)
		accepted[next.ApproverID] = true
		last = next.ApproverID
	}
	return ordered
}

// ChainHead returns the approver row with no predecessor, if present.
func ChainHead(rows []RequestApprover) *RequestApprover {
	for i := range rows {
		if rows[i].PredecessorID == nil {
			return &rows[i]
		}
	}
	return nil
}
