package httpapi

import "github.com/dmitrijs2005/blogapi/internal/server/models"

type threadNode struct {
	commentResponse
	Replies []*threadNode `json:"replies"`
}

// buildThread nests comments under their parents, keeping input order at
// every level. A comment becomes a root when its parent is not in the set
// or when it sits on a parent cycle; nothing is dropped.
func buildThread(comments []*models.Comment) []*threadNode {
	nodes := make(map[string]*threadNode, len(comments))
	parent := make(map[string]string, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &threadNode{commentResponse: toCommentResponse(c), Replies: []*threadNode{}}
		if c.ParentID != nil && *c.ParentID != c.ID {
			parent[c.ID] = *c.ParentID
		}
	}

	inCycle := cycleMembers(comments, parent, nodes)

	roots := make([]*threadNode, 0)
	for _, c := range comments {
		n := nodes[c.ID]
		p, ok := parent[c.ID]
		if ok && !inCycle[c.ID] {
			if pn, exists := nodes[p]; exists {
				pn.Replies = append(pn.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// cycleMembers walks each parent chain once and returns the ids lying on a
// cycle.
func cycleMembers(comments []*models.Comment, parent map[string]string, nodes map[string]*threadNode) map[string]bool {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(comments))
	cycle := map[string]bool{}

	for _, c := range comments {
		if state[c.ID] != unvisited {
			continue
		}

		path := []string{}
		cur := c.ID
		for {
			state[cur] = onPath
			path = append(path, cur)

			next, ok := parent[cur]
			if !ok {
				break
			}
			if _, exists := nodes[next]; !exists {
				break
			}
			if state[next] == onPath {
				for i := len(path) - 1; i >= 0; i-- {
					cycle[path[i]] = true
					if path[i] == next {
						break
					}
				}
				break
			}
			if state[next] == done {
				break
			}
			cur = next
		}

		for _, id := range path {
			state[id] = done
		}
	}
	return cycle
}
