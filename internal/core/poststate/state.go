package poststate

// LikeState is the fully resolved like facet of a post
type LikeState struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

// ShareState is the fully resolved share facet of a post
type ShareState struct {
	IsShared   bool `json:"isShared"`
	ShareCount int  `json:"shareCount"`
}

// CommentState is the fully resolved comment facet of a post
type CommentState struct {
	CommentCount int `json:"commentCount"`
}

// LikePatch is a partial like facet. A nil field has no local value and
// falls back to whatever the server supplied.
type LikePatch struct {
	IsLiked   *bool `json:"isLiked,omitempty"`
	LikeCount *int  `json:"likeCount,omitempty"`
}

// SharePatch is a partial share facet
type SharePatch struct {
	IsShared   *bool `json:"isShared,omitempty"`
	ShareCount *int  `json:"shareCount,omitempty"`
}

// CommentPatch is a partial comment facet
type CommentPatch struct {
	CommentCount *int `json:"commentCount,omitempty"`
}

// Override is the locally known state of one post. Each field shadows the
// matching server field independently; a post may have a like override and
// nothing else.
type Override struct {
	Like    LikePatch
	Share   SharePatch
	Comment CommentPatch
}

// LikeOf builds a complete like patch
func LikeOf(isLiked bool, likeCount int) LikePatch {
	return LikePatch{IsLiked: ptr(isLiked), LikeCount: ptr(clampCount(likeCount))}
}

// ShareOf builds a complete share patch
func ShareOf(isShared bool, shareCount int) SharePatch {
	return SharePatch{IsShared: ptr(isShared), ShareCount: ptr(clampCount(shareCount))}
}

// CommentOf builds a complete comment patch
func CommentOf(commentCount int) CommentPatch {
	return CommentPatch{CommentCount: ptr(clampCount(commentCount))}
}

// IsZero reports whether the patch carries no local value
func (p LikePatch) IsZero() bool { return p.IsLiked == nil && p.LikeCount == nil }

// IsZero reports whether the patch carries no local value
func (p SharePatch) IsZero() bool { return p.IsShared == nil && p.ShareCount == nil }

// IsZero reports whether the patch carries no local value
func (p CommentPatch) IsZero() bool { return p.CommentCount == nil }

// IsZero reports whether no facet has a local value
func (o Override) IsZero() bool {
	return o.Like.IsZero() && o.Share.IsZero() && o.Comment.IsZero()
}

// Resolve fills the missing fields of p from fallback
func (p LikePatch) Resolve(fallback LikeState) LikeState {
	if p.IsLiked != nil {
		fallback.IsLiked = *p.IsLiked
	}
	if p.LikeCount != nil {
		fallback.LikeCount = *p.LikeCount
	}
	return fallback
}

// Resolve fills the missing fields of p from fallback
func (p SharePatch) Resolve(fallback ShareState) ShareState {
	if p.IsShared != nil {
		fallback.IsShared = *p.IsShared
	}
	if p.ShareCount != nil {
		fallback.ShareCount = *p.ShareCount
	}
	return fallback
}

// Resolve fills the missing fields of p from fallback
func (p CommentPatch) Resolve(fallback CommentState) CommentState {
	if p.CommentCount != nil {
		fallback.CommentCount = *p.CommentCount
	}
	return fallback
}

// Complete returns the resolved state when every field is known locally
func (p LikePatch) Complete() (LikeState, bool) {
	if p.IsLiked == nil || p.LikeCount == nil {
		return LikeState{}, false
	}
	return LikeState{IsLiked: *p.IsLiked, LikeCount: *p.LikeCount}, true
}

// Complete returns the resolved state when every field is known locally
func (p SharePatch) Complete() (ShareState, bool) {
	if p.IsShared == nil || p.ShareCount == nil {
		return ShareState{}, false
	}
	return ShareState{IsShared: *p.IsShared, ShareCount: *p.ShareCount}, true
}

// Complete returns the resolved state when the count is known locally
func (p CommentPatch) Complete() (CommentState, bool) {
	if p.CommentCount == nil {
		return CommentState{}, false
	}
	return CommentState{CommentCount: *p.CommentCount}, true
}

// merge overlays the non-nil fields of patch onto p. The result never aliases
// memory owned by the caller.
func (p LikePatch) merge(patch LikePatch) LikePatch {
	out := p.clone()
	if patch.IsLiked != nil {
		out.IsLiked = ptr(*patch.IsLiked)
	}
	if patch.LikeCount != nil {
		out.LikeCount = ptr(clampCount(*patch.LikeCount))
	}
	return out
}

func (p SharePatch) merge(patch SharePatch) SharePatch {
	out := p.clone()
	if patch.IsShared != nil {
		out.IsShared = ptr(*patch.IsShared)
	}
	if patch.ShareCount != nil {
		out.ShareCount = ptr(clampCount(*patch.ShareCount))
	}
	return out
}

func (p CommentPatch) merge(patch CommentPatch) CommentPatch {
	out := p.clone()
	if patch.CommentCount != nil {
		out.CommentCount = ptr(clampCount(*patch.CommentCount))
	}
	return out
}

func (o Override) merge(patch Override) Override {
	return Override{
		Like:    o.Like.merge(patch.Like),
		Share:   o.Share.merge(patch.Share),
		Comment: o.Comment.merge(patch.Comment),
	}
}

func (p LikePatch) clone() LikePatch {
	return LikePatch{IsLiked: clonePtr(p.IsLiked), LikeCount: clonePtr(p.LikeCount)}
}

func (p SharePatch) clone() SharePatch {
	return SharePatch{IsShared: clonePtr(p.IsShared), ShareCount: clonePtr(p.ShareCount)}
}

func (p CommentPatch) clone() CommentPatch {
	return CommentPatch{CommentCount: clonePtr(p.CommentCount)}
}

func (o Override) clone() Override {
	return Override{Like: o.Like.clone(), Share: o.Share.clone(), Comment: o.Comment.clone()}
}

// toggleCount applies the ±1 adjustment that accompanies a flag change.
// The count only moves when the flag actually flips.
func toggleCount(wasSet, nowSet bool, count int) int {
	switch {
	case wasSet == nowSet:
		return count
	case nowSet:
		return count + 1
	default:
		return clampCount(count - 1)
	}
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
