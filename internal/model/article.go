package model

import (
	"slices"
	"time"
)

// Article 定义了文章（章节）模型，评论树直接内嵌其中。
type Article struct {
	ID          int64        `json:"id"`
	Author      int64        `json:"author"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Content     string       `json:"content"`
	Status      Status       `json:"status"`
	CreateTime  time.Time    `json:"createTime"`
	EditTime    time.Time    `json:"editTime"`
	Previous    int64        `json:"previous"`
	Next        int64        `json:"next"`
	Likes       []int64      `json:"likes"`
	Dislikes    []int64      `json:"dislikes"`
	Price       float64      `json:"price"`
	Long        bool         `json:"long"`
	Rating      float64      `json:"rating"`
	Tags        []string     `json:"tags"`
	Comments    []Comment    `json:"comments"`
	Annotations []Annotation `json:"annotations"`
}

// ArticleFields carries the caller supplied parts of a new article.
type ArticleFields struct {
	Author   int64
	Title    string
	Summary  string
	Content  string
	Previous int64
	Price    float64
	Long     bool
	Tags     []string
}

// NewArticle assembles an article with no comments and no next chapter.
func NewArticle(id int64, fields ArticleFields, createTime time.Time) *Article {
	previous := fields.Previous
	if previous < 0 {
		previous = NoChapter
	}
	return &Article{
		ID:          id,
		Author:      fields.Author,
		Title:       fields.Title,
		Summary:     fields.Summary,
		Content:     fields.Content,
		Status:      StatusActive,
		CreateTime:  createTime,
		EditTime:    createTime,
		Previous:    previous,
		Next:        NoChapter,
		Likes:       []int64{},
		Dislikes:    []int64{},
		Price:       fields.Price,
		Long:        fields.Long,
		Tags:        cloneStrings(fields.Tags),
		Comments:    []Comment{},
		Annotations: []Annotation{},
	}
}

func (a *Article) Kind() Kind { return KindArticle }
func (a *Article) RecordID() int64 { return a.ID }
func (a *Article) SetRecordID(id int64) { a.ID = id }
func (*Article) record() {}

func (a *Article) SearchText() string {
	return joinSearchText(a.Title, a.Summary, a.Content)
}

func (a *Article) CloneRecord() Record {
	clone := *a
	clone.Likes = cloneIDs(a.Likes)
	clone.Dislikes = cloneIDs(a.Dislikes)
	clone.Tags = cloneStrings(a.Tags)
	clone.Comments = cloneComments(a.Comments)
	clone.Annotations = make([]Annotation, len(a.Annotations))
	copy(clone.Annotations, a.Annotations)
	return &clone
}

// Path 按子列表下标定位评论：[articleId, idx1, idx2, ...]。
type Path []int64

// ArticleID returns path[0].
func (p Path) ArticleID() int64 {
	if len(p) == 0 {
		return NoChapter
	}
	return p[0]
}

// Depth is 0 for the article itself, 1 for a top-level comment.
func (p Path) Depth() int {
	return len(p) - 1
}

// Child returns a new path addressing child idx of p.
func (p Path) Child(idx int64) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, idx)
}

// Parent returns the path of the enclosing list owner.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p[:len(p)-1])
}

// Comment 是评论树中的节点。
type Comment struct {
	Path            Path      `json:"path"`
	Content         string    `json:"content"`
	Author          int64     `json:"author"`
	Likes           []int64   `json:"likes"`
	Dislikes        []int64   `json:"dislikes"`
	Time            time.Time `json:"time"`
	Reply           []Comment `json:"reply"`
	IsArticleAuthor bool      `json:"isArticleAuthor"`
	IsRootAuthor    bool      `json:"isRootAuthor"`
	Status          Status    `json:"status"`
}

// NewComment assembles a comment at path. article and root are the records
// read beforehand; root is the top-level comment at path[1] and is only
// consulted when the comment is nested two or more levels deep.
func NewComment(path Path, content string, author int64, at time.Time, article *Article, root *Comment) Comment {
	isRootAuthor := true
	if path.Depth() >= 2 {
		isRootAuthor = root != nil && root.Author == author
	}
	return Comment{
		Path:            slices.Clone(path),
		Content:         content,
		Author:          author,
		Likes:           []int64{},
		Dislikes:        []int64{},
		Time:            at,
		Reply:           []Comment{},
		IsArticleAuthor: article != nil && article.Author == author,
		IsRootAuthor:    isRootAuthor,
		Status:          StatusActive,
	}
}

// Clone returns a deep copy of the comment and its replies.
func (c Comment) Clone() Comment {
	c.Path = slices.Clone(c.Path)
	c.Likes = cloneIDs(c.Likes)
	c.Dislikes = cloneIDs(c.Dislikes)
	c.Reply = cloneComments(c.Reply)
	return c
}

func cloneComments(comments []Comment) []Comment {
	out := make([]Comment, len(comments))
	for i := range comments {
		out[i] = comments[i].Clone()
	}
	return out
}
