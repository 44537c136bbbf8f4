package app

// OpenAPISpec is the OpenAPI 3.0 specification served at /docs/openapi.yaml
var OpenAPISpec = []byte(`openapi: "3.0.3"
info:
  title: Geo-Grid Rank Tracker API
  description: Local search rank tracking over geographic grids.
  version: "1.0.0"
servers:
  - url: /api/v1
paths:
  /campaigns:
    post:
      summary: Create a campaign
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/CreateCampaignRequest"
      responses:
        "201":
          description: Campaign created
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Campaign"
        "400":
          description: Validation error
    get:
      summary: List campaigns
      parameters:
        - name: include_archived
          in: query
          schema:
            type: boolean
        - name: limit
          in: query
          schema:
            type: integer
        - name: offset
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: Campaigns
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: "#/components/schemas/Campaign"
  /campaigns/{id}:
    get:
      summary: Get a campaign
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "200":
          description: Campaign
        "404":
          description: Not found
    put:
      summary: Update a campaign
      parameters:
        - $ref: "#/components/parameters/ID"
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/UpdateCampaignRequest"
      responses:
        "200":
          description: Updated campaign
        "404":
          description: Not found
  /campaigns/{id}/archive:
    post:
      summary: Archive a campaign
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "204":
          description: Archived
        "404":
          description: Not found
  /campaigns/{campaignID}/scans:
    post:
      summary: Run a grid scan
      description: >
        Runs a full grid scan synchronously and returns the outcome.
        An optional keyword list overrides the campaign keywords for
        this scan only.
      parameters:
        - name: campaignID
          in: path
          required: true
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                keywords:
                  type: array
                  items:
                    type: string
      responses:
        "200":
          description: Scan outcome
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/ScanOutcome"
        "404":
          description: Campaign not found
        "409":
          description: A scan is already running for this campaign
    get:
      summary: List scans for a campaign
      parameters:
        - name: campaignID
          in: path
          required: true
          schema:
            type: string
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: Scans
  /scans/{id}:
    get:
      summary: Get a scan
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "200":
          description: Scan
        "404":
          description: Not found
    delete:
      summary: Delete a scan and its results
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "204":
          description: Deleted
        "409":
          description: Scan is running
  /scans/{id}/progress:
    get:
      summary: Get scan progress
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "200":
          description: Status and percent complete
  /scans/{id}/competitors:
    get:
      summary: List competitor stats for a scan
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "200":
          description: Competitor stats ordered by share of voice
  /scans/{id}/results:
    get:
      summary: List per-point keyword results for a scan
      parameters:
        - $ref: "#/components/parameters/ID"
      responses:
        "200":
          description: Keyword results in keyword, row, column order
components:
  parameters:
    ID:
      name: id
      in: path
      required: true
      schema:
        type: string
  schemas:
    CreateCampaignRequest:
      type: object
      required: [name, target_name, center_lat, center_lng, grid_size, radius_km, keywords]
      properties:
        name:
          type: string
        target_place_id:
          type: string
        target_name:
          type: string
        center_lat:
          type: number
        center_lng:
          type: number
        grid_size:
          type: integer
          description: Odd value between 3 and 11.
        radius_km:
          type: number
        keywords:
          type: array
          items:
            type: string
        frequency:
          type: string
          enum: [weekly, biweekly, monthly]
    UpdateCampaignRequest:
      type: object
      properties:
        name:
          type: string
        keywords:
          type: array
          items:
            type: string
        grid_size:
          type: integer
        radius_km:
          type: number
        frequency:
          type: string
    Campaign:
      type: object
      properties:
        id:
          type: string
        name:
          type: string
        target_place_id:
          type: string
        target_name:
          type: string
        center_lat:
          type: number
        center_lng:
          type: number
        grid_size:
          type: integer
        radius_km:
          type: number
        keywords:
          type: array
          items:
            type: string
        frequency:
          type: string
        next_scan_at:
          type: string
          format: date-time
        archived:
          type: boolean
    ScanOutcome:
      type: object
      properties:
        scan_id:
          type: string
        avg_rank:
          type: number
        share_of_voice:
          type: number
        top_competitor:
          type: string
        api_calls_used:
          type: integer
        failed_points:
          type: integer
`)
