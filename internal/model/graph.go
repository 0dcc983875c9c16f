package model

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Size  int    `json:"size"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
